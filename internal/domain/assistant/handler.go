package assistant

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
	api.POST("/chat", h.Ask)
	api.GET("/chat/history", h.History)
	api.DELETE("/chat/history", h.Reset)
	api.GET("/chat/prompts", h.Prompts)
}

type askRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := h.svc.Ask(c.Request().Context(), req.Message)
	if errors.Is(err, ErrEmptyMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) History(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.History())
}

func (h *Handler) Reset(c echo.Context) error {
	h.svc.Reset()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Prompts(c echo.Context) error {
	return c.JSON(http.StatusOK, SamplePrompts)
}
