package bed

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/beds", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListBeds)
	g.POST("", h.CreateBed)
	g.DELETE("/:room", h.DeleteBed)
}

// ListBeds returns bed rooms. With ?all=true every bed is returned with its
// current occupant.
func (h *Handler) ListBeds(c echo.Context) error {
	ctx := c.Request().Context()
	if c.QueryParam("all") == "true" {
		views, err := h.svc.ListWithOccupancy(ctx)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, views)
	}
	beds, err := h.svc.List(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var body struct {
		Room string `json:"room" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&body); err != nil {
		return err
	}
	b, err := h.svc.Create(c.Request().Context(), body.Room)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) DeleteBed(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("room")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrBedNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRoomTaken), errors.Is(err, ErrBedInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrRoomMissing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
