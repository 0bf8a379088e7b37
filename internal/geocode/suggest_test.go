package geocode

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

func TestSuggestDedupesAndLimits(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", searchPattern, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "10", req.URL.Query().Get("count"))
		body := `{"results":[
			{"name":"Saint Petersburg"},{"name":"Saint Petersburg"},{"name":"Saint-Paul"},
			{"name":"Saint Louis"},{"name":"Saint John"},{"name":"Saint-Denis"},
			{"name":"Saint Paul"},{"name":"Saint-Étienne"},{"name":"Saint George"},{"name":"Saint Cloud"}
		]}`
		return httpmock.NewStringResponse(http.StatusOK, body), nil
	})

	r := NewResolver(testSettings(), nil, nil)
	got := r.Suggest(context.Background(), "Saint")
	assert.Len(t, got, 8)
	assert.Equal(t, []string{
		"Saint Petersburg", "Saint-Paul", "Saint Louis", "Saint John",
		"Saint-Denis", "Saint Paul", "Saint-Étienne", "Saint George",
	}, got)

	// Repeated query is served from memory
	r.Suggest(context.Background(), "saint")
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSuggestShortQuery(t *testing.T) {
	setupHTTPMock(t)

	r := NewResolver(testSettings(), nil, nil)
	assert.Empty(t, r.Suggest(context.Background(), "M"))
	assert.Empty(t, r.Suggest(context.Background(), "  "))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestSuggestFallsBackToDefaultCities(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"service error", httpmock.NewStringResponder(http.StatusServiceUnavailable, ``)},
		{"transport error", httpmock.NewErrorResponder(fmt.Errorf("offline"))},
		{"no results", httpmock.NewStringResponder(http.StatusOK, `{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder("GET", searchPattern, tt.responder)

			r := NewResolver(testSettings(), nil, nil)
			assert.Equal(t, []string{"Новосибирск", "Нижний Новгород"}, r.Suggest(context.Background(), "нов"))
			assert.Equal(t, []string{"Санкт-Петербург"}, r.Suggest(context.Background(), "ПЕТЕР"))
			assert.Empty(t, r.Suggest(context.Background(), "zz"))
		})
	}
}

func TestSuggestCachedResultsAreCopies(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", searchPattern,
		httpmock.NewStringResponder(http.StatusOK, `{"results":[{"name":"Berlin"},{"name":"Bern"}]}`))

	r := NewResolver(testSettings(), nil, nil)
	first := r.Suggest(context.Background(), "Ber")
	first[0] = "Changed"
	slices.Reverse(first)

	second := r.Suggest(context.Background(), "Ber")
	second[1] = "Changed again"

	assert.Equal(t, []string{"Berlin", "Bern"}, r.Suggest(context.Background(), "Ber"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
