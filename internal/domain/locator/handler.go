package locator

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/locator/hospitals", h.Hospitals)
	api.GET("/locator/pharmacies", h.Pharmacies)
	api.GET("/locator/directions", h.Directions)
}

// parsePosition reads a position from the given query parameters. Both
// missing means DefaultPosition.
func parsePosition(c echo.Context, latKey, lngKey string) (Position, error) {
	rawLat, rawLng := c.QueryParam(latKey), c.QueryParam(lngKey)
	if rawLng == "" && lngKey == "lng" {
		rawLng = c.QueryParam("lon")
	}
	if rawLat == "" && rawLng == "" {
		return DefaultPosition, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid %s: %q", latKey, rawLat)
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid %s: %q", lngKey, rawLng)
	}
	p := Position{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Position{}, fmt.Errorf("position out of range")
	}
	return p, nil
}

// Hospitals handles GET /locator/hospitals?lat=&lng=&q=.
func (h *Handler) Hospitals(c echo.Context) error {
	pos, err := parsePosition(c, "lat", "lng")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.Hospitals(c.Request().Context(), pos, c.QueryParam("q"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Pharmacies(c echo.Context) error {
	pos, err := parsePosition(c, "lat", "lng")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.Pharmacies(c.Request().Context(), pos)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// Directions handles GET /locator/directions?from_lat=&from_lng=&to_lat=&to_lng=.
func (h *Handler) Directions(c echo.Context) error {
	from, err := parsePosition(c, "from_lat", "from_lng")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if c.QueryParam("to_lat") == "" || c.QueryParam("to_lng") == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "to_lat and to_lng are required")
	}
	to, err := parsePosition(c, "to_lat", "to_lng")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	km := Distance(from, to)
	return c.JSON(http.StatusOK, map[string]any{
		"url":            DirectionsURL(from, to),
		"distance_km":    roundTo(km, 1),
		"travel_minutes": TravelMinutes(km),
	})
}
