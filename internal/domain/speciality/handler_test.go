package speciality

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo, *Service) {
	svc, _ := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc), e, svc
}

func TestHandler_Assign(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		body string
		code int
	}{
		{"creates and links", "2001", `{"name":"pediatrics","description":"children"}`, http.StatusCreated},
		{"unknown without description", "2001", `{"name":"pediatrics"}`, http.StatusBadRequest},
		{"unknown doctor", "9999", `{"name":"pediatrics","description":"children"}`, http.StatusNotFound},
		{"missing name", "2001", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e, _ := newTestHandler()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("document")
			c.SetParamValues(tt.doc)

			err := h.Assign(c)
			code := rec.Code
			if httpErr, ok := err.(*echo.HTTPError); ok {
				code = httpErr.Code
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
		})
	}
}

func TestHandler_RemoveNotAssigned(t *testing.T) {
	h, e, svc := newTestHandler()
	_, _ = svc.Create(context.Background(), "dermatology", "skin")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("document", "name")
	c.SetParamValues("2001", "dermatology")

	err := h.Remove(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_DoctorsWithActiveFilter(t *testing.T) {
	h, e, svc := newTestHandler()
	desc := "eyes"
	if _, err := svc.AssignToDoctor(context.Background(), "2001", AssignRequest{Name: "ophthalmology", Description: &desc}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?active=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("ophthalmology")

	if err := h.DoctorsWith(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var docs []DoctorRef
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 || docs[0].NumDocument != "2001" {
		t.Errorf("unexpected doctors: %s", rec.Body.String())
	}
}

func TestHandler_ListEmpty(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}
