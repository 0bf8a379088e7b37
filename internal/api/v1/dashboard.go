package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/weather"
)

// AddCityRequest is the body of POST /cities
type AddCityRequest struct {
	Name string `json:"name"`
}

// SelectCityRequest is the body of PUT /cities/active
type SelectCityRequest struct {
	Index *int `json:"index"`
}

// MutationResponse is returned after the city list changed. Warning is set
// when the change was committed but the following refresh failed.
type MutationResponse struct {
	dashboard.View
	Warning string `json:"warning,omitempty"`
}

// LocateResponse is returned by POST /locate
type LocateResponse struct {
	Snapshot *weather.Snapshot `json:"snapshot"`
	View     dashboard.View    `json:"view"`
}

// SuggestResponse is returned by GET /suggest
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// GetDashboard returns the full dashboard view
func (c *Controller) GetDashboard(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.dashboard.View())
}

// ListCities returns the tracked cities with their local time and conditions
func (c *Controller) ListCities(ctx echo.Context) error {
	v := c.dashboard.View()
	return ctx.JSON(http.StatusOK, map[string]any{
		"cities":      v.Cities,
		"activeIndex": v.ActiveIndex,
	})
}

// AddCity geocodes and appends a city, making it active
func (c *Controller) AddCity(ctx echo.Context) error {
	var req AddCityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"))
	}

	name := strings.TrimSpace(req.Name)
	err := c.dashboard.AddCity(ctx.Request().Context(), name)
	committed := err == nil || c.isTracked(name)
	return c.mutationResult(ctx, http.StatusCreated, err, committed)
}

// RemoveCity removes the city at :index
func (c *Controller) RemoveCity(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return c.HandleError(ctx, validationError("invalid city index %q", ctx.Param("index")))
	}

	err = c.dashboard.RemoveCity(ctx.Request().Context(), index)
	return c.mutationResult(ctx, http.StatusOK, err, !errors.IsCategory(err, errors.CategoryValidation))
}

// SelectCity makes the city at the given index active
func (c *Controller) SelectCity(ctx echo.Context) error {
	var req SelectCityRequest
	if err := ctx.Bind(&req); err != nil || req.Index == nil {
		return c.HandleError(ctx, validationError("index is required"))
	}

	err := c.dashboard.SelectCity(ctx.Request().Context(), *req.Index)
	return c.mutationResult(ctx, http.StatusOK, err, !errors.IsCategory(err, errors.CategoryValidation))
}

// Refresh refreshes the active city, serving a fresh cached snapshot when present
func (c *Controller) Refresh(ctx echo.Context) error {
	snap, err := c.dashboard.RefreshActive(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, snap)
}

// Locate acquires the device position and tracks it as the first city
func (c *Controller) Locate(ctx echo.Context) error {
	snap, err := c.dashboard.LocateCurrent(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, LocateResponse{Snapshot: snap, View: c.dashboard.View()})
}

// Suggest completes the q query parameter
func (c *Controller) Suggest(ctx echo.Context) error {
	q := ctx.QueryParam("q")
	suggestions := []string{}
	if c.suggester != nil {
		if s := c.suggester.Suggest(ctx.Request().Context(), q); s != nil {
			suggestions = s
		}
	}
	return ctx.JSON(http.StatusOK, SuggestResponse{Query: q, Suggestions: suggestions})
}

// mutationResult writes the view after a mutation. A refresh failure after a
// committed change is reported as a warning rather than an error.
func (c *Controller) mutationResult(ctx echo.Context, status int, err error, committed bool) error {
	if err != nil && (!committed || !dashboard.IsRefreshError(err)) {
		return c.HandleError(ctx, err)
	}

	resp := MutationResponse{View: c.dashboard.View()}
	if err != nil {
		resp.Warning = errors.UserMessage(err)
		c.logger.Info("change committed, refresh failed", "path", ctx.Request().URL.Path, "error", err)
	}
	return ctx.JSON(status, resp)
}

func (c *Controller) isTracked(name string) bool {
	for _, city := range c.dashboard.View().Cities {
		if city.Name == name {
			return true
		}
	}
	return false
}
