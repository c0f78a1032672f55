package report

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
)

// MedicationSource lists the stored medications.
type MedicationSource interface {
	List(ctx context.Context) ([]medication.Record, error)
}

// ReminderSource lists every stored reminder.
type ReminderSource interface {
	All(ctx context.Context) ([]reminder.Reminder, error)
}

type Handler struct {
	meds      MedicationSource
	reminders ReminderSource
	clock     clock.Clock
}

func NewHandler(meds MedicationSource, reminders ReminderSource, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.New()
	}
	return &Handler{meds: meds, reminders: reminders, clock: clk}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard)
	api.GET("/dashboard/chart", h.Chart)
	api.GET("/reports/compliance", h.Compliance)
}

func (h *Handler) load(ctx context.Context) ([]medication.Record, []reminder.Reminder, error) {
	meds, err := h.meds.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	rems, err := h.reminders.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	return meds, rems, nil
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c echo.Context) error {
	meds, rems, err := h.load(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ComputeDashboard(meds, rems, h.clock.Now()))
}

// Chart handles GET /dashboard/chart.
func (h *Handler) Chart(c echo.Context) error {
	meds, err := h.meds.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ChartSlices(TypeBreakdown(meds)))
}

// Compliance handles GET /reports/compliance?type=weekly|monthly.
func (h *Handler) Compliance(c echo.Context) error {
	rt, err := ParseReportType(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rems, err := h.reminders.All(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ComputeCompliance(rems, rt, h.now()))
}

func (h *Handler) now() time.Time {
	return h.clock.Now()
}
