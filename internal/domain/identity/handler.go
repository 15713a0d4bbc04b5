package identity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/date"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/users", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListUsers)
	g.POST("", h.RegisterUser)
	g.GET("/:document", h.GetUser)
	g.PUT("/:document", h.UpdateUser)
	g.PATCH("/:document/roles/:role", h.SetRoleActive)
	g.GET("/:document/responsible", h.GetResponsible)
	g.PUT("/:document/responsible", h.SetResponsible)
}

type registerRequest struct {
	NumDocument  string     `json:"num_document" validate:"required,document"`
	Role         Role       `json:"role" validate:"required,role"`
	TypeDocument *string    `json:"type_document"`
	Name         *string    `json:"name"`
	Surname      *string    `json:"surname"`
	Sex          *string    `json:"sex" validate:"omitempty,oneof=M F O"`
	Birthday     *date.Date `json:"birthday"`
	Address      *string    `json:"address"`
	Phone        *string    `json:"phone"`
	Email        *string    `json:"email" validate:"omitempty,email"`
}

func (h *Handler) RegisterUser(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	info := &UserInfo{
		NumDocument:  req.NumDocument,
		TypeDocument: req.TypeDocument,
		Name:         req.Name,
		Surname:      req.Surname,
		Sex:          req.Sex,
		Birthday:     req.Birthday,
		Address:      req.Address,
		Phone:        req.Phone,
		Email:        req.Email,
	}
	ident, err := h.svc.Register(c.Request().Context(), info, req.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, &User{UserInfo: *info, Roles: []*Identity{ident}})
}

func (h *Handler) GetUser(c echo.Context) error {
	u, err := h.svc.GetUser(c.Request().Context(), c.Param("document"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

// ListUsers lists the holders of ?role= (patient by default). ?active=false
// includes deactivated identities.
func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	role := Role(c.QueryParam("role"))
	if role == "" {
		role = RolePatient
	}
	activeOnly := true
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active flag")
		}
		activeOnly = b
	}
	items, total, err := h.svc.ListUsers(c.Request().Context(), role, activeOnly, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateUser(c echo.Context) error {
	var upd UserUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&upd); err != nil {
		return err
	}
	info, err := h.svc.UpdateUser(c.Request().Context(), c.Param("document"), upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) SetRoleActive(c echo.Context) error {
	role := Role(c.Param("role"))
	if !role.Valid() {
		return httpError(ErrInvalidRole)
	}
	var body struct {
		Active *bool `json:"active" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		ident *Identity
		err   error
	)
	if *body.Active {
		ident, err = h.svc.Activate(ctx, c.Param("document"), role)
	} else {
		ident, err = h.svc.Deactivate(ctx, c.Param("document"), role)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ident)
}

func (h *Handler) GetResponsible(c echo.Context) error {
	resp, err := h.svc.GetResponsible(c.Request().Context(), c.Param("document"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) SetResponsible(c echo.Context) error {
	var resp Responsible
	if err := c.Bind(&resp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetResponsible(c.Request().Context(), c.Param("document"), &resp); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRoleExists), errors.Is(err, ErrEmailInUse), errors.Is(err, ErrPatientInBed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrSelfResponsible), errors.Is(err, ErrNothingToUpdate),
		errors.Is(err, ErrDocumentMissing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
