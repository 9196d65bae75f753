package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/utils"
)

// ObservationSink applies raw observations to a group's model.
type ObservationSink interface {
	Update(ctx context.Context, key source.GroupKey, values []float64) (*services.GroupModel, error)
}

// Observation is a batch of raw daily values for one group, oldest first.
// A NaN value marks a missing day.
type Observation struct {
	Key    source.GroupKey
	Values []float64
}

// observationMessage is the wire form:
//
//	{"site_id": 12, "threshold_type": "1", "values": [21.5, null, "22.1"]}
type observationMessage struct {
	SiteID        interface{}   `json:"site_id"`
	ThresholdType interface{}   `json:"threshold_type"`
	Values        []interface{} `json:"values"`
}

// ErrMalformedObservation is returned by DecodeObservation for messages that
// can never be applied.
var ErrMalformedObservation = errors.New("malformed observation")

// DecodeObservation parses an observation message. Numbers may be sent as
// JSON numbers or numeric strings; null values become NaN.
func DecodeObservation(data []byte) (Observation, error) {
	var msg observationMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformedObservation, err)
	}

	site, ok := utils.ParseInt64(msg.SiteID)
	if !ok {
		return Observation{}, fmt.Errorf("%w: site_id %v is not an integer", ErrMalformedObservation, msg.SiteID)
	}
	threshold := utils.ToString(msg.ThresholdType)
	if threshold == "" {
		return Observation{}, fmt.Errorf("%w: threshold_type is required", ErrMalformedObservation)
	}

	values := make([]float64, len(msg.Values))
	for i, raw := range msg.Values {
		if raw == nil {
			values[i] = math.NaN()
			continue
		}
		v, ok := utils.ParseFloat64(raw)
		if !ok {
			return Observation{}, fmt.Errorf("%w: values[%d] = %v", ErrMalformedObservation, i, raw)
		}
		values[i] = v
	}

	return Observation{
		Key:    source.GroupKey{SiteID: site, ThresholdType: threshold},
		Values: values,
	}, nil
}

// Ingestor turns observation messages into online model updates.
type Ingestor struct {
	sink   ObservationSink
	logger *logging.Logger

	applied  atomic.Int64
	rejected atomic.Int64
}

// NewIngestor creates an Ingestor feeding sink.
func NewIngestor(sink ObservationSink, logger *logging.Logger) *Ingestor {
	if logger == nil {
		logger = logging.Global()
	}
	return &Ingestor{sink: sink, logger: logger.With("component", "ingestor")}
}

// Handle is a MessageHandler. Messages that can never succeed (malformed,
// unknown group, invalid batch, failed retrain) are logged and acknowledged;
// other errors are returned so the transport redelivers.
func (in *Ingestor) Handle(ctx context.Context, subject string, data []byte) error {
	obs, err := DecodeObservation(data)
	if err != nil {
		in.rejected.Add(1)
		in.logger.Warn("Dropping observation", "subject", subject, "error", err)
		return nil
	}

	uctx, cancel := context.WithTimeout(ctx, utils.ObservationTimeout)
	defer cancel()

	gm, err := in.sink.Update(uctx, obs.Key, obs.Values)
	if err != nil {
		switch services.ErrorCode(err) {
		case services.CodeGroupNotFound, services.CodeInvalidObservations, services.CodeModelFailed:
			in.rejected.Add(1)
			in.logger.Warn("Observation rejected",
				"subject", subject,
				"group", obs.Key.String(),
				"values", len(obs.Values),
				"error", err)
			return nil
		}
		return fmt.Errorf("update %s: %w", obs.Key, err)
	}

	in.applied.Add(1)
	in.logger.Debug("Observation applied",
		"group", obs.Key.String(),
		"values", len(obs.Values),
		"data_points", gm.DataPoints)
	return nil
}

// Applied returns how many messages produced a model update.
func (in *Ingestor) Applied() int64 { return in.applied.Load() }

// Rejected returns how many messages were dropped without an update.
func (in *Ingestor) Rejected() int64 { return in.rejected.Load() }
