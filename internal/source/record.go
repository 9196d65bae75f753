// Package source holds the upstream record shapes fed into training:
// the daily summary entity, its loosely typed page form, and loaders
// that read them from postgres or CSV.
package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/sitecast/internal/analytics"
)

// SummaryRecord is one daily summary row for a site and sensor threshold.
// Nullable columns are pointers.
type SummaryRecord struct {
	SiteID        int64      `json:"site_id"`
	ThresholdType string     `json:"threshold_type"`
	AverageDay    *float64   `json:"average_day,omitempty"`
	TestingTime   *time.Time `json:"testing_time,omitempty"`
	SummaryTime   *time.Time `json:"summary_time,omitempty"`
	ProjectID     *int64     `json:"project_id,omitempty"`
	MonitorMax    *float64   `json:"monitor_max,omitempty"`
	MonitorMin    *float64   `json:"monitor_min,omitempty"`
	EquipmentType string     `json:"equipment_type,omitempty"`
}

// GroupKey identifies one (site, threshold) series.
type GroupKey struct {
	SiteID        int64  `json:"site_id"`
	ThresholdType string `json:"threshold_type"`
}

// Key returns the group the record belongs to.
func (r SummaryRecord) Key() GroupKey {
	return GroupKey{SiteID: r.SiteID, ThresholdType: r.ThresholdType}
}

// String renders the key as "site-threshold".
func (k GroupKey) String() string {
	return fmt.Sprintf("%d-%s", k.SiteID, k.ThresholdType)
}

// ParseGroupKey is the inverse of GroupKey.String.
func ParseGroupKey(s string) (GroupKey, error) {
	site, threshold, ok := strings.Cut(s, "-")
	if !ok || threshold == "" {
		return GroupKey{}, fmt.Errorf("invalid group key %q", s)
	}
	id, err := strconv.ParseInt(site, 10, 64)
	if err != nil {
		return GroupKey{}, fmt.Errorf("invalid site id in group key %q: %w", s, err)
	}
	return GroupKey{SiteID: id, ThresholdType: threshold}, nil
}

// ExtractSeries keeps records with both a summary time and a daily average
// and returns them ordered by summary time. Records sharing a timestamp
// keep their input order.
func ExtractSeries(records []SummaryRecord) analytics.TimeSeriesData {
	data := make(analytics.TimeSeriesData, 0, len(records))
	for _, r := range records {
		if r.SummaryTime == nil || r.AverageDay == nil {
			continue
		}
		data = append(data, analytics.TimeSeriesPoint{Time: *r.SummaryTime, Value: *r.AverageDay})
	}
	return data.SortedByTime()
}

// GroupRecords partitions records by (site, threshold). Records without a
// threshold type are dropped.
func GroupRecords(records []SummaryRecord) map[GroupKey][]SummaryRecord {
	groups := make(map[GroupKey][]SummaryRecord)
	for _, r := range records {
		if r.ThresholdType == "" {
			continue
		}
		groups[r.Key()] = append(groups[r.Key()], r)
	}
	return groups
}
