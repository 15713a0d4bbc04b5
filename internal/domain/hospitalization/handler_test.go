package hospitalization

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/validate"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *fixture) {
	f := newFixture(t)
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(f.mgr, zerolog.Nop()), e, f
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func errorBody(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	body, ok := httpErr.Message.(map[string]string)
	if !ok {
		return httpErr.Code, nil
	}
	return httpErr.Code, body
}

func TestHandler_Admit(t *testing.T) {
	h, e, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost,
		`{"patient_document":"P1","doctor_document":"D1","room":"R1","entry_date":"2024-01-01"}`), rec)

	if err := h.Admit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var adm Admission
	if err := json.Unmarshal(rec.Body.Bytes(), &adm); err != nil {
		t.Fatal(err)
	}
	if adm.EntryDate.String() != "2024-01-01" {
		t.Errorf("unexpected entry date %s", adm.EntryDate)
	}
}

func TestHandler_Admit_Conflict(t *testing.T) {
	h, e, f := newTestHandler(t)
	if _, err := f.mgr.Admit(context.Background(), admitReq("P1", "D1", "R1", "")); err != nil {
		t.Fatal(err)
	}

	c := e.NewContext(jsonRequest(http.MethodPost,
		`{"patient_document":"P2","doctor_document":"D2","room":"R1"}`), httptest.NewRecorder())
	code, body := errorBody(t, h.Admit(c))
	if code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
	if body["kind"] != "BedAlreadyOccupied" || body["message"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHandler_Admit_NotFound(t *testing.T) {
	h, e, _ := newTestHandler(t)
	c := e.NewContext(jsonRequest(http.MethodPost,
		`{"patient_document":"nobody","doctor_document":"D1","room":"R1"}`), httptest.NewRecorder())
	code, body := errorBody(t, h.Admit(c))
	if code != http.StatusNotFound || body["kind"] != "PatientNotFound" {
		t.Errorf("unexpected response %d %v", code, body)
	}
}

func TestHandler_Admit_BadPayload(t *testing.T) {
	h, e, _ := newTestHandler(t)
	tests := []string{
		`{"patient_document":"P1","room":"R1"}`,
		`{"patient_document":"P1","doctor_document":"D1","room":"R1","entry_date":"01/01/2024"}`,
		`not json`,
	}
	for _, body := range tests {
		c := e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder())
		code, _ := errorBody(t, h.Admit(c))
		if code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, code)
		}
	}
}

func TestHandler_Discharge(t *testing.T) {
	h, e, f := newTestHandler(t)
	if _, err := f.mgr.Admit(context.Background(), admitReq("P1", "D1", "R1", "2024-01-01")); err != nil {
		t.Fatal(err)
	}

	c := e.NewContext(jsonRequest(http.MethodPut, `{"discharge_date":"2023-12-31"}`), httptest.NewRecorder())
	c.SetParamNames("patient_document")
	c.SetParamValues("P1")
	code, body := errorBody(t, h.Discharge(c))
	if code != http.StatusBadRequest || body["kind"] != "InvalidDischargeDate" {
		t.Fatalf("unexpected response %d %v", code, body)
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPut, `{"discharge_date":"2024-01-05"}`), rec)
	c.SetParamNames("patient_document")
	c.SetParamValues("P1")
	if err := h.Discharge(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"discharge_date":"2024-01-05"`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Discharge_NotHospitalized(t *testing.T) {
	h, e, _ := newTestHandler(t)
	c := e.NewContext(jsonRequest(http.MethodPut, `{}`), httptest.NewRecorder())
	c.SetParamNames("patient_document")
	c.SetParamValues("P2")
	code, body := errorBody(t, h.Discharge(c))
	if code != http.StatusNotFound || body["kind"] != "PatientNotHospitalized" {
		t.Errorf("unexpected response %d %v", code, body)
	}
}

func TestHandler_Discharge_InvalidDocument(t *testing.T) {
	h, e, _ := newTestHandler(t)
	for _, doc := range []string{"", " P1", "P1?x"} {
		c := e.NewContext(jsonRequest(http.MethodPut, `{}`), httptest.NewRecorder())
		c.SetParamNames("patient_document")
		c.SetParamValues(doc)
		code, _ := errorBody(t, h.Discharge(c))
		if code != http.StatusBadRequest {
			t.Errorf("document %q: expected 400, got %d", doc, code)
		}
	}
}

func TestHandler_RoutesAdmitAndDischargeRequireDoctor(t *testing.T) {
	h, e, f := newTestHandler(t)
	h.RegisterRoutes(e.Group("/api/v1"))

	serve := func(method, path, body string, roles ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = req.WithContext(auth.WithCaller(req.Context(), "U1", roles...))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	admit := `{"patient_document":"P1","doctor_document":"D1","room":"R1"}`

	if rec := serve(http.MethodPost, "/api/v1/hospitalizations", admit, auth.RoleAdmin); rec.Code != http.StatusForbidden {
		t.Errorf("admin admit: expected 403, got %d", rec.Code)
	}
	if len(f.store.entries) != 0 {
		t.Fatalf("admin admit must not occupy a bed, got %d entries", len(f.store.entries))
	}
	if rec := serve(http.MethodPost, "/api/v1/hospitalizations", admit, auth.RoleDoctor); rec.Code != http.StatusCreated {
		t.Fatalf("doctor admit: expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(http.MethodPut, "/api/v1/hospitalizations/P1", `{}`, auth.RoleAdmin); rec.Code != http.StatusForbidden {
		t.Errorf("admin discharge: expected 403, got %d", rec.Code)
	}
	if len(f.store.entries) != 1 {
		t.Fatalf("admin discharge must not vacate the bed, got %d entries", len(f.store.entries))
	}
	if rec := serve(http.MethodPut, "/api/v1/hospitalizations/P1", `{}`, auth.RoleDoctor); rec.Code != http.StatusOK {
		t.Errorf("doctor discharge: expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(http.MethodGet, "/api/v1/hospitalizations", "", auth.RoleAdmin); rec.Code != http.StatusOK {
		t.Errorf("admin list: expected 200, got %d", rec.Code)
	}
}

func TestHandler_List(t *testing.T) {
	h, e, f := newTestHandler(t)
	ctx := context.Background()
	if _, err := f.mgr.Admit(ctx, admitReq("P1", "D1", "R1", "")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.mgr.Admit(ctx, admitReq("P2", "D1", "R2", "")); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=1", nil), rec)
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []RecordView `json:"data"`
		Total   int          `json:"total"`
		HasMore bool         `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
}

func TestHandler_ListByPatient_Empty(t *testing.T) {
	h, e, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("patient_document")
	c.SetParamValues("P2")
	if err := h.ListByPatient(c); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
