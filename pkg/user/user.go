package user

import (
	"fmt"
	"time"
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Settings    Settings
}

type Settings struct {
	// Timezone is an IANA name. Automatic processing evaluates its time-of-day
	// and weekend gates in this zone.
	Timezone string
}

// Location resolves the configured timezone, an empty timezone meaning UTC.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
