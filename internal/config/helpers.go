package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// BodyLimitBytes returns the request body limit for the HTTP server
func (c *ServerConfig) BodyLimitBytes() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}

// GetLocation returns the zone used to interpret source dates without an offset.
// Returns time.Local if not configured or invalid
// Supports formats:
//   - IANA timezone names: "Asia/Shanghai", "America/New_York", "UTC"
//   - Offset format: "+08:00", "-05:00", "+00:00"
func (c *SourceConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}

	// Try parsing as IANA timezone name first
	loc, err := time.LoadLocation(c.Timezone)
	if err == nil {
		return loc
	}

	loc, err = parseOffsetTimezone(c.Timezone)
	if err == nil {
		return loc
	}

	return time.Local
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid hours: %s", matches[2])
	}

	minutes, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid minutes: %s", matches[3])
	}

	offsetSeconds := sign * (hours*3600 + minutes*60)
	return time.FixedZone(offset, offsetSeconds), nil
}
