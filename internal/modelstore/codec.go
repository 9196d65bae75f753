package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Encoded snapshots start with one format byte.
const (
	formatJSON   byte = 'j'
	formatSnappy byte = 's'
)

// Codec turns snapshots into bytes: JSON, optionally snappy-compressed.
type Codec struct {
	Compress bool
}

// Encode marshals snap.
func (c Codec) Encode(snap *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if !c.Compress {
		return append([]byte{formatJSON}, raw...), nil
	}
	out := make([]byte, 1, 1+snappy.MaxEncodedLen(len(raw)))
	out[0] = formatSnappy
	return append(out, snappy.Encode(nil, raw)...), nil
}

// Decode accepts either format regardless of c.Compress.
func (c Codec) Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, errors.New("empty snapshot")
	}

	raw := data[1:]
	switch data[0] {
	case formatJSON:
	case formatSnappy:
		var err error
		raw, err = snappy.Decode(nil, raw)
		if err != nil {
			return nil, fmt.Errorf("snappy decompress failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", data[0])
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
