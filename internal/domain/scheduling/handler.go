package scheduling

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
	me.GET("/appointments", h.ListOwn)
	me.POST("/appointments", h.Book)
	me.PUT("/appointments/:id/cancel", h.Cancel)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/schedule", h.Schedule)
	doctor.PUT("/appointments/:id/complete", h.Complete)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.PUT("/appointments/:id/cancel", h.AdminCancel)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid appointment id")
	}
	return id, nil
}

func (h *Handler) Book(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("malformed request body")
	}
	appt, err := h.svc.Book(ctx, patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	views, err := h.svc.ListForPatient(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := auth.PatientID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	appt, err := h.svc.Cancel(ctx, id, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Schedule(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	view, err := ParseScheduleView(c.QueryParam("view"))
	if err != nil {
		return err
	}
	views, err := h.svc.DoctorSchedule(ctx, doctorID, view)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := auth.DoctorID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	appt, err := h.svc.Complete(ctx, id, doctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) AdminCancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	appt, err := h.svc.AdminCancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}
