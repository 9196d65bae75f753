package source

import (
	"fmt"
	"time"

	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/utils"
)

// PageRecord is a loosely typed row as delivered by upstream paging APIs.
// Values may be strings, numbers or nil.
type PageRecord map[string]interface{}

// Page record field names.
const (
	FieldSiteID        = "litchiId"
	FieldThresholdType = "thresholdType"
	FieldAverageDay    = "averageDay"
	FieldTestingTime   = "testingTime"
	FieldSummaryTime   = "summaryTime"
	FieldProjectID     = "projectId"
	FieldMonitorMax    = "monitorMax"
	FieldMonitorMin    = "monitorMin"
	FieldEquipmentType = "equipmentType"
)

// DateLayouts are tried in order when parsing page record dates.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseDate parses s with the first matching layout in DateLayouts,
// interpreting it in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Converter turns page records into summary records.
type Converter struct {
	loc    *time.Location
	logger *logging.Logger
}

// NewConverter creates a converter parsing dates in loc.
// A nil logger uses the global logger.
func NewConverter(loc *time.Location, logger *logging.Logger) *Converter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Converter{loc: loc, logger: logger}
}

// Convert converts every page. A page with a malformed number is skipped
// with a warning; a malformed date only leaves that field unset.
func (c *Converter) Convert(pages []PageRecord) []SummaryRecord {
	records := make([]SummaryRecord, 0, len(pages))
	for i, page := range pages {
		rec, err := c.convert(page)
		if err != nil {
			c.logger.Warn("Skipping page record", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (c *Converter) convert(page PageRecord) (SummaryRecord, error) {
	var rec SummaryRecord

	if raw, ok := present(page, FieldSiteID); ok {
		id, ok := utils.ParseInt64(raw)
		if !ok {
			return rec, fmt.Errorf("%s: invalid integer %v", FieldSiteID, raw)
		}
		rec.SiteID = id
	}
	if raw, ok := present(page, FieldProjectID); ok {
		id, ok := utils.ParseInt64(raw)
		if !ok {
			return rec, fmt.Errorf("%s: invalid integer %v", FieldProjectID, raw)
		}
		rec.ProjectID = &id
	}

	var err error
	if rec.AverageDay, err = decimalField(page, FieldAverageDay); err != nil {
		return rec, err
	}
	if rec.MonitorMax, err = decimalField(page, FieldMonitorMax); err != nil {
		return rec, err
	}
	if rec.MonitorMin, err = decimalField(page, FieldMonitorMin); err != nil {
		return rec, err
	}

	rec.ThresholdType = utils.ToString(page[FieldThresholdType])
	rec.EquipmentType = utils.ToString(page[FieldEquipmentType])
	rec.TestingTime = c.dateField(page, FieldTestingTime)
	rec.SummaryTime = c.dateField(page, FieldSummaryTime)

	return rec, nil
}

func (c *Converter) dateField(page PageRecord, field string) *time.Time {
	raw, ok := present(page, field)
	if !ok {
		return nil
	}
	if t, isTime := raw.(time.Time); isTime {
		return &t
	}
	t, err := ParseDate(utils.ToString(raw), c.loc)
	if err != nil {
		c.logger.Warn("Unparseable date", "field", field, "value", raw)
		return nil
	}
	return &t
}

func decimalField(page PageRecord, field string) (*float64, error) {
	raw, ok := present(page, field)
	if !ok {
		return nil, nil
	}
	f, ok := utils.ParseFloat64(raw)
	if !ok {
		return nil, fmt.Errorf("%s: invalid number %v", field, raw)
	}
	return &f, nil
}

// present reports whether field holds a non-blank value.
func present(page PageRecord, field string) (interface{}, bool) {
	raw, ok := page[field]
	if !ok || raw == nil {
		return nil, false
	}
	if s, isStr := raw.(string); isStr && utils.ToString(s) == "" {
		return nil, false
	}
	return raw, true
}
