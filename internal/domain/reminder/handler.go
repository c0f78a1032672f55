package reminder

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reminders", h.List)
	api.POST("/reminders", h.Create)
	api.GET("/reminders/due", h.ListDue)
	api.DELETE("/reminders/:id", h.Delete)
	api.POST("/reminders/:id/taken", h.MarkTaken)
	api.POST("/reminders/:id/toggle", h.Toggle)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrConfirmFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// List handles GET /reminders?filter=all|active|completed|today|overdue&group=date.
func (h *Handler) List(c echo.Context) error {
	f, err := ParseFilter(c.QueryParam("filter"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	if c.QueryParam("group") == "date" {
		return c.JSON(http.StatusOK, GroupByDate(items))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDue(c echo.Context) error {
	items, err := h.svc.Due(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	var r Reminder
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Add(c.Request().Context(), &r); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkTaken(c echo.Context) error {
	r, err := h.svc.MarkTaken(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Toggle(c echo.Context) error {
	r, err := h.svc.Toggle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}
