// Package output renders dashboard data for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/weather"
	"gopkg.in/yaml.v3"
)

// Formats accepted by the --output flag.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Validate reports whether format is one of the supported formats.
func Validate(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (table, json or yaml)", format)
	}
}

// View writes the city list.
func View(w io.Writer, format string, view dashboard.View) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, format, view)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCITY\tTEMP\tCONDITION\tTIME\t")
	for _, c := range view.Cities {
		marker := " "
		if c.Active {
			marker = "*"
		}
		temp := "-"
		if c.TempC != nil {
			temp = fmt.Sprintf("%d°C", *c.TempC)
		}
		fmt.Fprintf(tw, "%s%d\t%s\t%s\t%s\t%s\t\n", marker, c.Index, c.Name, temp, c.ConditionText, c.LocalTime)
	}
	return tw.Flush()
}

// Snapshot writes current conditions and the forecast for one city.
func Snapshot(w io.Writer, format string, s *weather.Snapshot) error {
	if s == nil {
		_, err := fmt.Fprintln(w, "no weather data")
		return err
	}
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, format, s)
	}

	c := s.Current
	fmt.Fprintf(w, "%s: %d°C, %s\n", s.CityName, c.TempC, c.ConditionText)
	fmt.Fprintf(w, "Feels like %d°C, wind %.0f km/h, humidity %d%%, pressure %d hPa\n",
		c.FeelsLikeC, c.WindKph, c.HumidityPct, c.PressureHpa)
	if s.Timezone != "" {
		fmt.Fprintf(w, "Timezone: %s\n", s.Timezone)
	}
	if len(s.Forecast) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMAX\tMIN\tCONDITION\t")
	for _, d := range s.Forecast {
		fmt.Fprintf(tw, "%s\t%d°C\t%d°C\t%s\t\n", d.Date, d.MaxTempC, d.MinTempC, d.ConditionText)
	}
	return tw.Flush()
}

// Lines writes one value per line, or a list in json or yaml.
func Lines(w io.Writer, format string, values []string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, format, values)
	}
	if len(values) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(values, "\n"))
	return err
}

func encode(w io.Writer, format string, v any) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
