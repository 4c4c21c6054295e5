package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/geocode"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// GeoHandler exposes geocoding utilities to clients that capture device
// coordinates and need a display address, or the reverse.
type GeoHandler struct {
	geocoder geocode.Geocoder
}

// NewGeoHandler constructs handler.
func NewGeoHandler(geocoder geocode.Geocoder) *GeoHandler {
	return &GeoHandler{geocoder: geocoder}
}

// Reverse GET /utils/geocode/reverse?lat=&lng=.
func (h *GeoHandler) Reverse(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return apperrors.NewValidationError("lat and lng query parameters are required", nil)
	}

	address, err := h.geocoder.Reverse(c.Context(), lat, lng)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"address": address}})
}

// Forward GET /utils/geocode/forward?address=.
func (h *GeoHandler) Forward(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return apperrors.NewValidationError("address query parameter is required", nil)
	}

	lat, lng, err := h.geocoder.Forward(c.Context(), address)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"latitude": lat, "longitude": lng}})
}
