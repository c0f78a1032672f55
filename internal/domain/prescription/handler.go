package prescription

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxUploadBytes caps uploaded prescription documents.
const maxUploadBytes = 16 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions", h.List)
	api.POST("/prescriptions/upload", h.Upload)
	api.POST("/prescriptions/parse", h.Parse)
	api.POST("/prescriptions/emergency-doc", h.EmergencyDoc)
	api.GET("/prescriptions/:id", h.Get)
	api.DELETE("/prescriptions/:id", h.Delete)
	api.POST("/prescriptions/:id/summary", h.Summary)
	api.POST("/prescriptions/:id/tips", h.Tips)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoMedications):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrBackend):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Upload handles POST /prescriptions/upload with a multipart "file" field.
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file")
	}
	if fh.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	res, err := h.svc.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

type parseRequest struct {
	StructuredText string `json:"structured_text"`
}

func (h *Handler) Parse(c echo.Context) error {
	var req parseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Parse(req.StructuredText))
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Summary(c echo.Context) error {
	g, err := h.svc.Summary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Tips(c echo.Context) error {
	g, err := h.svc.Tips(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, g)
}

type emergencyDocRequest struct {
	PrescriptionID string `json:"prescription_id"`
}

// EmergencyDoc handles POST /prescriptions/emergency-doc. The body is optional;
// without a prescription_id the latest prescription is used.
func (h *Handler) EmergencyDoc(c echo.Context) error {
	var req emergencyDocRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	url, err := h.svc.EmergencyDoc(c.Request().Context(), req.PrescriptionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
