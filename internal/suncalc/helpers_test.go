package suncalc

import (
	"testing"
	"time"
)

// Moscow coordinates for testing
const (
	testLatitude  = 55.7558
	testLongitude = 37.6173
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	return loc
}

// newTestSunCalc creates a SunCalc instance for Moscow.
func newTestSunCalc(t *testing.T) *SunCalc {
	t.Helper()
	return NewSunCalc(testLatitude, testLongitude, moscow(t))
}
