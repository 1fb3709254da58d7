package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated /auth endpoints.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// RegisterRoutes mounts the authenticated endpoints on api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	me := api.Group("/me", auth.RequireRole(auth.RolePatient))
	me.GET("/profile", h.GetProfile)
	me.PUT("/profile", h.UpdateProfile)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/doctors", h.CreateDoctor)
	admin.DELETE("/doctors/:id", h.DeactivateDoctor)
	admin.PUT("/doctors/:id/status", h.SetDoctorStatus)
	admin.PUT("/patients/:id/status", h.SetPatientStatus)
}

type statusRequest struct {
	Active *bool `json:"active"`
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("malformed request body")
	}
	return nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatientProfile(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	var info PersonalInfo
	if err := bind(c, &info); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatientProfile(ctx, patientID, info)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req CreateDoctorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.svc.CreateDoctorAccount(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) DeactivateDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.SetDoctorActive(c.Request().Context(), id, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SetDoctorStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return apperr.Validation("active is required")
	}
	d, err := h.svc.SetDoctorActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SetPatientStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return apperr.Validation("active is required")
	}
	p, err := h.svc.SetPatientActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
