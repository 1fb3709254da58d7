package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/availability"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withClaims(req *http.Request, claims *auth.Claims) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func patientClaims(id uuid.UUID) *auth.Claims {
	return &auth.Claims{Role: auth.RolePatient, PatientID: &id}
}

func doctorClaims(id uuid.UUID) *auth.Claims {
	return &auth.Claims{Role: auth.RoleDoctor, DoctorID: &id}
}

func TestHandler_Book(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()
	doc := env.people.addDoctor(true, availability.Monday)
	pat := env.people.addPatient(true)

	body := `{"doctor_id":"` + doc.String() + `","appointment_time":"` + mondayTen + `"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(withClaims(jsonRequest(http.MethodPost, "/", body), patientClaims(pat)), rec)
	if err := h.Book(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var out Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != StatusScheduled || out.PatientID != pat {
		t.Errorf("unexpected appointment %+v", out)
	}
}

func TestHandler_Book_UsesClaimsNotBody(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	doc := env.people.addDoctor(true, availability.Monday)
	pat := env.people.addPatient(true)
	other := env.people.addPatient(true)

	body := `{"doctor_id":"` + doc.String() + `","appointment_time":"` + mondayTen + `","patient_id":"` + other.String() + `"}`
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(withClaims(jsonRequest(http.MethodPost, "/", body), patientClaims(pat)), rec)
	if err := h.Book(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), pat.String()) {
		t.Errorf("appointment must belong to the caller: %s", rec.Body.String())
	}
}

func TestHandler_Book_MissingFields(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	pat := env.people.addPatient(true)
	c := echo.New().NewContext(withClaims(jsonRequest(http.MethodPost, "/", `{}`), patientClaims(pat)), httptest.NewRecorder())
	if err := h.Book(c); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_Book_NoClaims(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	c := echo.New().NewContext(jsonRequest(http.MethodPost, "/", `{}`), httptest.NewRecorder())
	if err := h.Book(c); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestHandler_CancelAndComplete(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()
	doc := env.people.addDoctor(true, availability.Monday)
	pat := env.people.addPatient(true)
	appt, err := book(env, pat, doc, mondayTen)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(withClaims(httptest.NewRequest(http.MethodPut, "/", nil), doctorClaims(doc)), rec)
	c.SetParamNames("id")
	c.SetParamValues(appt.ID.String())
	if err := h.Complete(c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"status":"Completed"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c = e.NewContext(withClaims(httptest.NewRequest(http.MethodPut, "/", nil), patientClaims(pat)), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(appt.ID.String())
	if err := h.Cancel(c); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("cancel after complete: expected forbidden, got %v", err)
	}
}

func TestHandler_Cancel_BadID(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	c := echo.New().NewContext(withClaims(httptest.NewRequest(http.MethodPut, "/", nil), patientClaims(uuid.New())), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.Cancel(c); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_Schedule_InvalidView(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	req := withClaims(httptest.NewRequest(http.MethodGet, "/?view=yesterday", nil), doctorClaims(uuid.New()))
	c := echo.New().NewContext(req, httptest.NewRecorder())
	if err := h.Schedule(c); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_ListOwn_EmptyArray(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(withClaims(httptest.NewRequest(http.MethodGet, "/", nil), patientClaims(uuid.New())), rec)
	if err := h.ListOwn(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}

func TestRoutes_RoleEnforcement(t *testing.T) {
	env := newTestEnv()
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, msg := apperr.Response(err)
		_ = c.JSON(status, map[string]string{"error": msg})
	}
	pat := uuid.New()
	api := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(withClaims(c.Request(), patientClaims(pat)))
			return next(c)
		}
	})
	NewHandler(env.svc).RegisterRoutes(api)

	for _, target := range []string{
		"/api/doctor/appointments/" + uuid.NewString() + "/complete",
		"/api/admin/appointments/" + uuid.NewString() + "/cancel",
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, target, nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/me/appointments/"+uuid.NewString()+"/cancel", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("patient cancel of unknown appointment: expected 404, got %d", rec.Code)
	}
}
