package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	ee := New(fmt.Errorf("test error")).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != ComponentUnknown {
		t.Errorf("Expected component 'unknown' without reporting, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic', got '%s'", ee.Category)
	}
}

func TestCategoryDetectedFromSentinel(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{fmt.Errorf("%w: Atlantis", ErrNotFound), CategoryNotFound},
		{fmt.Errorf("%w: status 502", ErrLookup), CategoryLookup},
		{fmt.Errorf("%w: status 500", ErrFetch), CategoryFetch},
		{fmt.Errorf("%w: Paris", ErrDuplicate), CategoryConflict},
		{ErrGeolocationTimeout, CategoryGeolocation},
		{ErrNoCities, CategoryState},
	}

	for _, tt := range tests {
		ee := New(tt.err).Build()
		if ee.Category != tt.want {
			t.Errorf("%v: expected category %s, got %s", tt.err, tt.want, ee.Category)
		}
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	inner := New(fmt.Errorf("%w: Atlantis", ErrNotFound)).Component("geocode").Build()
	outer := New(fmt.Errorf("add city: %w", inner)).Component("dashboard").Build()

	if !Is(outer, ErrNotFound) {
		t.Fatal("expected wrapped error to match ErrNotFound")
	}
	if outer.Category != CategoryNotFound {
		t.Errorf("expected category inherited from inner error, got %s", outer.Category)
	}
	if !IsNotFound(outer) {
		t.Error("IsNotFound should report true")
	}
}

func TestErrorHooks(t *testing.T) {
	ClearErrorHooks()
	t.Cleanup(ClearErrorHooks)

	var seen []ErrorCategory
	AddErrorHook(func(ee *EnhancedError) {
		seen = append(seen, ee.Category)
	})

	_ = New(ErrFetch).Build()
	_ = New(ErrDuplicate).Build()

	if len(seen) != 2 || seen[0] != CategoryFetch || seen[1] != CategoryConflict {
		t.Errorf("unexpected hook calls: %v", seen)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(fmt.Errorf("x: %w", ErrDuplicate)); got != "This city is already added" {
		t.Errorf("unexpected duplicate message: %q", got)
	}
	if got := UserMessage(ValidationError("city name is required")); got != "city name is required" {
		t.Errorf("validation message should pass through, got %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("nil error should have empty message, got %q", got)
	}
}

func TestBasicURLScrub(t *testing.T) {
	msg := "GET https://api.open-meteo.com/v1/forecast?latitude=55.7558&longitude=37.6173 failed"
	scrubbed := basicURLScrub(msg)
	if strings.Contains(scrubbed, "55.7558") {
		t.Errorf("coordinates not scrubbed: %s", scrubbed)
	}
	if !strings.Contains(scrubbed, "https://api.open-meteo.com/v1/forecast?[REDACTED]") {
		t.Errorf("query not redacted: %s", scrubbed)
	}

	scrubbed = basicURLScrub("mqtt password=hunter2 rejected at 59.9343")
	if strings.Contains(scrubbed, "hunter2") || strings.Contains(scrubbed, "59.9343") {
		t.Errorf("secret or coordinate leaked: %s", scrubbed)
	}
}
