package source

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/soltixdb/sitecast/internal/logging"
)

func TestParseDateLayouts(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-05-06 07:08:09", time.Date(2024, 5, 6, 7, 8, 9, 0, loc)},
		{"2024-05-06T07:08:09", time.Date(2024, 5, 6, 7, 8, 9, 0, loc)},
		{"2024-05-06", time.Date(2024, 5, 6, 0, 0, 0, 0, loc)},
		{"2024/05/06 07:08:09", time.Date(2024, 5, 6, 7, 8, 9, 0, loc)},
		{"2024/05/06", time.Date(2024, 5, 6, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, loc)
			if err != nil {
				t.Fatalf("ParseDate failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseDate("06.05.2024", loc); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestConverterConvert(t *testing.T) {
	conv := NewConverter(time.UTC, logging.NewNop())

	pages := []PageRecord{
		{
			FieldSiteID:        "1001",
			FieldThresholdType: "3",
			FieldAverageDay:    "12.5",
			FieldSummaryTime:   "2024-05-06",
			FieldProjectID:     json.Number("7"),
			FieldMonitorMax:    20.0,
			FieldMonitorMin:    "",
			FieldEquipmentType: " soil ",
		},
		{
			FieldSiteID:      "not-a-number",
			FieldAverageDay:  "1",
			FieldSummaryTime: "2024-05-06",
		},
		{
			FieldSiteID:        1002,
			FieldThresholdType: 4,
			FieldAverageDay:    "x1",
		},
		{
			FieldSiteID:        1003,
			FieldThresholdType: "1",
			FieldAverageDay:    2,
			FieldSummaryTime:   "yesterday",
			FieldTestingTime:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	records := conv.Convert(pages)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.SiteID != 1001 || first.ThresholdType != "3" {
		t.Errorf("unexpected key: %+v", first.Key())
	}
	if first.AverageDay == nil || *first.AverageDay != 12.5 {
		t.Errorf("AverageDay = %v", first.AverageDay)
	}
	if first.ProjectID == nil || *first.ProjectID != 7 {
		t.Errorf("ProjectID = %v", first.ProjectID)
	}
	if first.MonitorMax == nil || *first.MonitorMax != 20 {
		t.Errorf("MonitorMax = %v", first.MonitorMax)
	}
	if first.MonitorMin != nil {
		t.Errorf("blank MonitorMin should be nil, got %v", *first.MonitorMin)
	}
	if first.EquipmentType != "soil" {
		t.Errorf("EquipmentType = %q", first.EquipmentType)
	}
	if first.SummaryTime == nil || !first.SummaryTime.Equal(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("SummaryTime = %v", first.SummaryTime)
	}

	second := records[1]
	if second.SiteID != 1003 {
		t.Errorf("SiteID = %d", second.SiteID)
	}
	if second.SummaryTime != nil {
		t.Error("unparseable date should leave SummaryTime unset")
	}
	if second.TestingTime == nil {
		t.Error("time.Time value should be kept as is")
	}
}
