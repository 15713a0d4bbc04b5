package speciality

import (
	"errors"
	"net/http"
	"strconv"

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
	admin := auth.RequireRole(auth.RoleAdmin)
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor)

	api.GET("/specialities", h.List, staff)
	api.POST("/specialities", h.Create, admin)
	api.GET("/specialities/:name", h.DoctorsWith, staff)

	api.GET("/doctors/:document/specialities", h.ListForDoctor, staff)
	api.POST("/doctors/:document/specialities", h.Assign, admin)
	api.DELETE("/doctors/:document/specialities/:name", h.Remove, admin)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Speciality{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sp, err := h.svc.Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sp)
}

// DoctorsWith handles GET /specialities/:name?active=true.
func (h *Handler) DoctorsWith(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	items, err := h.svc.DoctorsWith(c.Request().Context(), c.Param("name"), activeOnly)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*DoctorRef{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	items, err := h.svc.ListForDoctor(c.Request().Context(), c.Param("document"))
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Speciality{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Assign(c echo.Context) error {
	var req AssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sp, err := h.svc.AssignToDoctor(c.Request().Context(), c.Param("document"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sp)
}

func (h *Handler) Remove(c echo.Context) error {
	if err := h.svc.RemoveFromDoctor(c.Request().Context(), c.Param("document"), c.Param("name")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrSpecialityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSpecialityExists), errors.Is(err, ErrAlreadyAssigned), errors.Is(err, ErrNotAssigned):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrDescriptionMissing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
