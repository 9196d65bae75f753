// batch_forecast loads summary records, trains one model per (site, threshold)
// group and writes the training report, the performance summary and the
// per-site daily export as a single JSON document.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/utils"
)

type output struct {
	Report      *services.TrainReport    `json:"report"`
	Performance services.R2Summary       `json:"performance"`
	Export      *services.ExportDocument `json:"export"`
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	csvPath := flag.String("csv", "", "Read records from this CSV file instead of the configured source")
	since := flag.String("since", "", "Only load postgres rows with summary_time on or after this date (YYYY-MM-DD)")
	days := flag.Int("days", utils.ExportDays, "Days in the per-site export")
	outPath := flag.String("out", "", "Write JSON here instead of stdout")
	flag.Parse()

	if err := run(*configPath, *csvPath, *since, *days, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "batch_forecast: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, csvPath, since string, days int, outPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if csvPath != "" {
		cfg.Source.Type = "csv"
		cfg.Source.CSVPath = csvPath
	}

	// Logs go to stderr so stdout stays valid JSON.
	logCfg := cfg.Logging
	if logCfg.OutputPath == "" || logCfg.OutputPath == "stdout" {
		logCfg.OutputPath = "stderr"
	}
	logger, err := logging.NewFromConfig(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.SetGlobal(logger)

	var sinceTime time.Time
	if since != "" {
		if sinceTime, err = source.ParseDate(since, cfg.Source.GetLocation()); err != nil {
			return fmt.Errorf("invalid -since: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Forecast.TrainTimeout+time.Minute)
	defer cancel()

	records, err := source.LoadRecords(ctx, cfg.Source, logger, sinceTime)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	logger.Info("Records loaded", "source", cfg.Source.Type, "records", len(records))

	svc := services.NewForecastService(logger, cfg.Forecast, nil, nil, nil)
	report, err := svc.TrainAll(ctx, records)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	export, err := svc.Export(ctx, time.Now(), days)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Report:      report,
		Performance: svc.PerformanceReport(),
		Export:      export,
	})
}
