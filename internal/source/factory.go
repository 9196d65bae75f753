package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/logging"
)

// ErrNoSource is returned when no record source is configured.
var ErrNoSource = errors.New("no record source configured")

// LoadRecords reads every summary record from the configured source. For
// postgres, a non-zero since restricts rows by summary_time.
func LoadRecords(ctx context.Context, cfg config.SourceConfig, logger *logging.Logger, since time.Time) ([]SummaryRecord, error) {
	switch cfg.Type {
	case "":
		return nil, ErrNoSource
	case "postgres":
		loader, err := NewPostgresLoader(cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		defer func() { _ = loader.Close() }()
		return loader.Since(since).Load(ctx)
	case "csv":
		conv := NewConverter(cfg.GetLocation(), logger)
		return NewCSVLoader(cfg.CSVPath, conv).Load(ctx)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}
