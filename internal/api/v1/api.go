// Package api implements the /api/v1 JSON endpoints of the weather dashboard.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/weather"
)

// Dashboard is the part of dashboard.Manager the API drives.
type Dashboard interface {
	View() dashboard.View
	AddCity(ctx context.Context, name string) error
	RemoveCity(ctx context.Context, index int) error
	SelectCity(ctx context.Context, index int) error
	RefreshActive(ctx context.Context) (*weather.Snapshot, error)
	LocateCurrent(ctx context.Context) (*weather.Snapshot, error)
}

// Suggester completes partially typed city names.
type Suggester interface {
	Suggest(ctx context.Context, query string) []string
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	dashboard Dashboard
	suggester Suggester
	logger    *slog.Logger
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// New registers the v1 routes on e.
func New(e *echo.Echo, dash Dashboard, suggester Suggester) *Controller {
	c := &Controller{
		Echo:      e,
		Group:     e.Group("/api/v1"),
		dashboard: dash,
		suggester: suggester,
		logger:    logging.ForService("api"),
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/dashboard", c.GetDashboard)

	c.Group.GET("/cities", c.ListCities)
	c.Group.POST("/cities", c.AddCity)
	c.Group.DELETE("/cities/:index", c.RemoveCity)
	c.Group.PUT("/cities/active", c.SelectCity)

	c.Group.POST("/refresh", c.Refresh)
	c.Group.POST("/locate", c.Locate)
	c.Group.GET("/suggest", c.Suggest)
}

// HandleError logs err and writes an ErrorResponse with the status that
// matches the error kind. The message is safe to show to users.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	code := StatusFor(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		Message:   errors.UserMessage(err),
		Code:      code,
		RequestID: ctx.Response().Header().Get(echo.HeaderXRequestID),
	}

	level := slog.LevelWarn
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	c.logger.Log(ctx.Request().Context(), level, "API error",
		"request_id", resp.RequestID,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"code", code,
		"error", err)

	return ctx.JSON(code, resp)
}

// StatusFor maps dashboard errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrGeolocationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrGeolocationDenied), errors.Is(err, errors.ErrGeolocationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrNoCities), errors.Is(err, errors.ErrCityRemoved):
		return http.StatusConflict
	case errors.Is(err, errors.ErrLookup), errors.Is(err, errors.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}
