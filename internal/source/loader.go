package source

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Loader reads summary records from an upstream store.
type Loader interface {
	Load(ctx context.Context) ([]SummaryRecord, error)
}

var summaryColumns = []string{
	"litchi_id",
	"threshold_type",
	"average_day",
	"testing_time",
	"summary_time",
	"project_id",
	"monitor_max",
	"monitor_min",
	"equipment_type",
}

// PostgresLoader reads the summary table through lib/pq.
type PostgresLoader struct {
	db    *sql.DB
	table string
	since time.Time
}

// NewPostgresLoader opens a connection pool for dsn. Rows are read from table.
func NewPostgresLoader(dsn, table string) (*PostgresLoader, error) {
	if table == "" {
		return nil, errors.New("source table is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return &PostgresLoader{db: db, table: table}, nil
}

// Since restricts loading to rows with summary_time at or after t.
func (l *PostgresLoader) Since(t time.Time) *PostgresLoader {
	l.since = t
	return l
}

// Close releases the connection pool.
func (l *PostgresLoader) Close() error {
	return l.db.Close()
}

// Load reads all rows ordered by site, threshold and summary time.
func (l *PostgresLoader) Load(ctx context.Context) ([]SummaryRecord, error) {
	query, args := buildSummaryQuery(l.table, l.since)
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", l.table, err)
	}
	defer func() { _ = rows.Close() }()

	var records []SummaryRecord
	for rows.Next() {
		rec, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", l.table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.table, err)
	}
	return records, nil
}

func buildSummaryQuery(table string, since time.Time) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(summaryColumns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(pq.QuoteIdentifier(table))

	var args []interface{}
	if !since.IsZero() {
		b.WriteString(" WHERE summary_time >= $1")
		args = append(args, since)
	}
	b.WriteString(" ORDER BY litchi_id, threshold_type, summary_time")
	return b.String(), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(s scanner) (SummaryRecord, error) {
	var (
		siteID, projectID               sql.NullInt64
		threshold, equipment            sql.NullString
		average, monitorMax, monitorMin sql.NullFloat64
		testingTime, summaryTime        pq.NullTime
	)
	if err := s.Scan(&siteID, &threshold, &average, &testingTime, &summaryTime,
		&projectID, &monitorMax, &monitorMin, &equipment); err != nil {
		return SummaryRecord{}, err
	}

	rec := SummaryRecord{
		SiteID:        siteID.Int64,
		ThresholdType: strings.TrimSpace(threshold.String),
		EquipmentType: equipment.String,
	}
	if average.Valid {
		rec.AverageDay = &average.Float64
	}
	if monitorMax.Valid {
		rec.MonitorMax = &monitorMax.Float64
	}
	if monitorMin.Valid {
		rec.MonitorMin = &monitorMin.Float64
	}
	if projectID.Valid {
		rec.ProjectID = &projectID.Int64
	}
	if testingTime.Valid {
		rec.TestingTime = &testingTime.Time
	}
	if summaryTime.Valid {
		rec.SummaryTime = &summaryTime.Time
	}
	return rec, nil
}

// CSVLoader reads a CSV export whose header names page record fields
// (camelCase) or table columns (snake_case).
type CSVLoader struct {
	path string
	conv *Converter
}

// NewCSVLoader creates a loader for the file at path.
func NewCSVLoader(path string, conv *Converter) *CSVLoader {
	return &CSVLoader{path: path, conv: conv}
}

// Load reads and converts the whole file.
func (l *CSVLoader) Load(ctx context.Context) ([]SummaryRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()

	pages, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}
	return l.conv.Convert(pages), nil
}

var snakeToField = map[string]string{
	"litchi_id":      FieldSiteID,
	"site_id":        FieldSiteID,
	"threshold_type": FieldThresholdType,
	"average_day":    FieldAverageDay,
	"testing_time":   FieldTestingTime,
	"summary_time":   FieldSummaryTime,
	"project_id":     FieldProjectID,
	"monitor_max":    FieldMonitorMax,
	"monitor_min":    FieldMonitorMin,
	"equipment_type": FieldEquipmentType,
}

// ReadCSV parses CSV rows into page records keyed by the header.
func ReadCSV(ctx context.Context, r io.Reader) ([]PageRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if field, ok := snakeToField[strings.ToLower(h)]; ok {
			h = field
		}
		header[i] = h
	}

	var pages []PageRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		page := make(PageRecord, len(header))
		for i, h := range header {
			if i < len(row) {
				page[h] = row[i]
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}
