package directory

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	me := api.Group("/me", auth.RequireRole(auth.RolePatient))
	me.GET("/doctors", h.ActiveDoctors)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/dashboard", h.Dashboard)
	admin.GET("/specialties", h.ListSpecialties)
	admin.POST("/specialties", h.CreateSpecialty)
	admin.GET("/doctors", h.ListDoctors)
	admin.GET("/patients", h.ListPatients)
}

func optionalBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be true or false", name)
	}
	return &v, nil
}

func doctorFilter(c echo.Context) (DoctorFilter, error) {
	f := DoctorFilter{Search: c.QueryParam("q"), Page: pagination.FromContext(c)}
	if raw := c.QueryParam("specialty_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation("specialty_id must be a uuid")
		}
		f.SpecialtyID = &id
	}
	active, err := optionalBool(c, "active")
	if err != nil {
		return f, err
	}
	f.Active = active
	return f, nil
}

func (h *Handler) ActiveDoctors(c echo.Context) error {
	f, err := doctorFilter(c)
	if err != nil {
		return err
	}
	out, err := h.svc.ActiveDoctors(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	f, err := doctorFilter(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Doctors(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListPatients(c echo.Context) error {
	active, err := optionalBool(c, "active")
	if err != nil {
		return err
	}
	f := PatientFilter{Search: c.QueryParam("q"), Active: active, Page: pagination.FromContext(c)}
	out, err := h.svc.Patients(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	out, err := h.svc.ListSpecialties(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateSpecialty(c echo.Context) error {
	var req CreateSpecialtyRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("malformed request body")
	}
	out, err := h.svc.CreateSpecialty(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Dashboard(c echo.Context) error {
	out, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
