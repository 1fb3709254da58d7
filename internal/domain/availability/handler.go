package availability

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
	me.GET("/doctors/:id/availability", h.GetForDoctor)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/availability", h.GetOwn)
	doctor.PUT("/availability", h.ReplaceOwn)
}

func (h *Handler) GetForDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	sched, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	sched, err := h.svc.Get(ctx, doctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) ReplaceOwn(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	var req ReplaceRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("malformed request body")
	}
	if req.Weekdays == nil {
		return apperr.Validation("weekdays is required")
	}
	sched, err := h.svc.Replace(ctx, doctorID, req.Weekdays)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sched)
}
