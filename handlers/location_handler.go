package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/internal/location"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
)

type addressLookup interface {
	Lookup(ctx context.Context, lat, lng float64) string
}

type LocationHandler struct {
	registry *location.Registry
	resolver addressLookup
}

func NewLocationHandler(registry *location.Registry, resolver addressLookup) *LocationHandler {
	return &LocationHandler{
		registry: registry,
		resolver: resolver,
	}
}

// CreateLocationSessionRequest switches picker features; omitted flags default to on.
type CreateLocationSessionRequest struct {
	Draggable     *bool `json:"draggable,omitempty"`
	AddressLookup *bool `json:"addressLookup,omitempty"`
	RTL           *bool `json:"rtl,omitempty"`
}

type CoordinatesRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type LocationDetailsRequest struct {
	Title        string `json:"title" validate:"max=30"`
	Landmark     string `json:"landmark" validate:"max=200"`
	DeliveryNote string `json:"deliveryNote" validate:"max=500"`
}

type LocationSessionView struct {
	ID           string                   `json:"id"`
	Capabilities location.Capabilities    `json:"capabilities"`
	Location     *domain.SelectedLocation `json:"location"`
}

func sessionView(id string, picker *location.Picker) LocationSessionView {
	view := LocationSessionView{ID: id, Capabilities: picker.Capabilities()}
	if current, ok := picker.Current(); ok {
		view.Location = &current
	}
	return view
}

func flag(v *bool) bool {
	return v == nil || *v
}

// CreateSession godoc
// @Summary Open a location picker session
// @Tags locations
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param request body CreateLocationSessionRequest false "Picker capabilities"
// @Success 201 {object} response.SuccessResponse
// @Router /api/v1/locations [post]
func (h *LocationHandler) CreateSession(c echo.Context) error {
	var req CreateLocationSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.BadRequest(c, err)
		}
	}

	id, picker := h.registry.Create(location.Capabilities{
		Draggable:     flag(req.Draggable),
		AddressLookup: flag(req.AddressLookup),
		RTL:           flag(req.RTL),
	})

	return response.Created(c, "Location session created", sessionView(id, picker))
}

func (h *LocationHandler) picker(c echo.Context) (*location.Picker, error) {
	return h.registry.Get(c.Param("id"))
}

// Select godoc
// @Summary Place the marker
// @Description Replaces any previous selection and resolves its address
// @Tags locations
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Session ID"
// @Param request body CoordinatesRequest true "Coordinates"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/locations/{id}/select [post]
func (h *LocationHandler) Select(c echo.Context) error {
	picker, err := h.picker(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CoordinatesRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	selected, err := picker.Select(c.Request().Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, selected)
}

// Drag godoc
// @Summary Move the marker
// @Description Moves the existing marker and refreshes its address; annotations are kept
// @Tags locations
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Session ID"
// @Param request body CoordinatesRequest true "Coordinates"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/locations/{id}/drag [post]
func (h *LocationHandler) Drag(c echo.Context) error {
	picker, err := h.picker(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CoordinatesRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	moved, err := picker.Drag(c.Request().Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, moved)
}

// UpdateDetails godoc
// @Summary Set title, landmark and delivery note
// @Tags locations
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Session ID"
// @Param request body LocationDetailsRequest true "Details"
// @Success 200 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/locations/{id}/details [put]
func (h *LocationHandler) UpdateDetails(c echo.Context) error {
	picker, err := h.picker(c)
	if err != nil {
		return respondError(c, err)
	}

	var req LocationDetailsRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	annotated, err := picker.Annotate(req.Title, req.Landmark, req.DeliveryNote)
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, annotated)
}

// GetSession godoc
// @Summary Get a picker session
// @Tags locations
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path string true "Session ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/locations/{id} [get]
func (h *LocationHandler) GetSession(c echo.Context) error {
	picker, err := h.picker(c)
	if err != nil {
		return respondError(c, err)
	}

	return response.Ok(c, sessionView(c.Param("id"), picker))
}

// DeleteSession godoc
// @Summary Close a picker session
// @Tags locations
// @Param x-api-key header string true "API key"
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/locations/{id} [delete]
func (h *LocationHandler) DeleteSession(c echo.Context) error {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return response.NoContent(c)
}

// ReverseGeocode godoc
// @Summary Resolve an address for coordinates
// @Description Never fails on provider errors; the fallback address is returned instead
// @Tags locations
// @Produce json
// @Param x-api-key header string true "API key"
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/locations/geocode [get]
func (h *LocationHandler) ReverseGeocode(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("lat must be a number"))
	}

	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("lng must be a number"))
	}

	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return response.BadRequest(c, err)
	}

	return response.Ok(c, map[string]any{
		"latitude":  lat,
		"longitude": lng,
		"address":   h.resolver.Lookup(c.Request().Context(), lat, lng),
	})
}
