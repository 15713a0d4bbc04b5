package hospitalization

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	mgr    *Manager
	logger zerolog.Logger
}

func NewHandler(mgr *Manager, logger zerolog.Logger) *Handler {
	return &Handler{mgr: mgr, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctors := api.Group("/hospitalizations", auth.RequireRole(auth.RoleDoctor))
	doctors.POST("", h.Admit)
	doctors.PUT("/:patient_document", h.Discharge)

	readers := api.Group("/hospitalizations", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	readers.GET("/current", h.ListCurrent)
	readers.GET("/patient/:patient_document", h.ListByPatient)

	admins := api.Group("/hospitalizations", auth.RequireRole(auth.RoleAdmin))
	admins.GET("", h.List)
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	adm, err := h.mgr.Admit(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, adm)
}

func (h *Handler) Discharge(c echo.Context) error {
	var req DischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.PatientDocument = c.Param("patient_document")
	if err := c.Validate(&req); err != nil {
		return err
	}
	out, err := h.mgr.Discharge(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.mgr.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	items, err := h.mgr.ListByPatient(c.Request().Context(), c.Param("patient_document"))
	if err != nil {
		return h.httpError(err)
	}
	if items == nil {
		items = []*RecordView{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCurrent(c echo.Context) error {
	items, err := h.mgr.Current(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	if items == nil {
		items = []*OccupancyView{}
	}
	return c.JSON(http.StatusOK, items)
}

// StatusOf maps an error kind to the HTTP status it is reported with.
func StatusOf(k Kind) int {
	switch k {
	case KindPatientNotFound, KindDoctorNotFound, KindBedNotFound, KindPatientNotHospitalized:
		return http.StatusNotFound
	case KindSameIdentityConflict, KindBedAlreadyOccupied, KindPatientAlreadyHospitalized:
		return http.StatusConflict
	case KindInvalidDischargeDate, KindInvalidEntryDate:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) httpError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return echo.NewHTTPError(StatusOf(e.Kind), map[string]string{
			"kind":    e.Kind.String(),
			"message": e.Error(),
		})
	}
	h.logger.Error().Err(err).Msg("hospitalization request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, map[string]string{
		"kind":    "Internal",
		"message": "internal error",
	})
}
