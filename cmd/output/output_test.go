package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testView() dashboard.View {
	temp := 18
	return dashboard.View{
		Cities: []dashboard.CityView{
			{Index: 0, Name: "Paris", Active: true, TempC: &temp, ConditionText: "Clear sky", LocalTime: "14:05"},
			{Index: 1, Name: "Tokyo", LocalTime: dashboard.NoTime},
		},
		ActiveIndex: 0,
		Theme:       weather.ThemeDay,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(FormatTable))
	assert.NoError(t, Validate(FormatJSON))
	assert.NoError(t, Validate(FormatYAML))
	assert.Error(t, Validate("xml"))
}

func TestViewTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, View(&buf, FormatTable, testView()))

	out := buf.String()
	assert.Contains(t, out, "*0")
	assert.Contains(t, out, "Paris")
	assert.Contains(t, out, "18°C")
	assert.Contains(t, out, "Tokyo")
	assert.Contains(t, out, dashboard.NoTime)
}

func TestViewJSONAndYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, View(&buf, FormatJSON, testView()))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "day", decoded["theme"])

	buf.Reset()
	require.NoError(t, View(&buf, FormatYAML, testView()))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, 0, fromYAML["activeIndex"])
	assert.Len(t, fromYAML["cities"], 2)
}

func TestSnapshotTable(t *testing.T) {
	t.Parallel()

	snap := &weather.Snapshot{
		CityName: "Paris",
		Current:  weather.Current{TempC: 18, ConditionText: "Clear sky", WindKph: 12.4},
		Forecast: []weather.ForecastDay{{Date: "2024-05-01", MaxTempC: 20, MinTempC: 9, ConditionText: "Overcast"}},
		Timezone: "Europe/Paris",
	}

	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, FormatTable, snap))
	out := buf.String()
	assert.Contains(t, out, "Paris: 18°C, Clear sky")
	assert.Contains(t, out, "wind 12 km/h")
	assert.Contains(t, out, "2024-05-01")

	buf.Reset()
	require.NoError(t, Snapshot(&buf, FormatTable, nil))
	assert.Equal(t, "no weather data\n", buf.String())
}

func TestLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Lines(&buf, FormatTable, []string{"Paris", "Pau"}))
	assert.Equal(t, "Paris\nPau\n", buf.String())

	buf.Reset()
	require.NoError(t, Lines(&buf, FormatJSON, []string{"Paris"}))
	assert.JSONEq(t, `["Paris"]`, buf.String())
}
