package masterdata

import (
	"context"
	"errors"
	"strings"
)

// Country names keyed by ISO code.
var countryNames = map[string]string{
	"KZ": "Kazakhstan",
	"KG": "Kyrgyzstan",
	"UZ": "Uzbekistan",
}

// CountryName returns the display name of a country code, or the code itself.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// KnownCountry tells if code is a supported country.
func KnownCountry(code string) bool {
	_, ok := countryNames[strings.ToUpper(code)]
	return ok
}

// Sensor represents a registered air-quality sensor.
type Sensor struct {
	Name     string
	Type     string
	Country  string
	Deployed bool
	Location string
	Owner    string
}

// Validate checks sensor invariants.
func (s Sensor) Validate() error {
	if s.Name == "" {
		return errors.New("sensor: empty name")
	}
	if s.Country == "" {
		return errors.New("sensor: empty country")
	}
	return nil
}

// DisplayLocation returns the location of a deployed sensor, "None" otherwise.
func (s Sensor) DisplayLocation() string {
	if !s.Deployed || s.Location == "" {
		return "None"
	}
	return s.Location
}

// TurnedOff tells if a deployed sensor delivered no data.
func (s Sensor) TurnedOff(responding bool) bool {
	return s.Deployed && !responding
}

// SensorRegistry lists the registered sensors of a country.
type SensorRegistry interface {
	ListByCountry(ctx context.Context, country string) ([]Sensor, error)
}
