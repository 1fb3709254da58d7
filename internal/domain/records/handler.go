package records

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	me := api.Group("/me", auth.RequireRole(auth.RolePatient))
	me.GET("/medical-records", h.ListOwn)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/patients/:id/records", h.ListForPatient)
	doctor.POST("/records", h.Append)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	out, err := h.svc.ListForPatient(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid patient id")
	}
	out, err := h.svc.ListForDoctor(ctx, doctorID, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Append(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	var req AppendRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("malformed request body")
	}
	rec, err := h.svc.Append(ctx, doctorID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}
