package medication

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Errorf("expected status %d, got %d", code, he.Code)
	}
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"Aspirin","dosage":"75mg","description":"NSAID pain reliever"}`), rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Record
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID == "" || got.Name != "Aspirin" {
		t.Errorf("unexpected body: %+v", got)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, `{"name":"Aspirin"}`), httptest.NewRecorder())
	expectHTTPError(t, h.Create(c), http.StatusConflict)

	c = e.NewContext(jsonRequest(http.MethodPost, `{"dosage":"1 tab"}`), httptest.NewRecorder())
	expectHTTPError(t, h.Create(c), http.StatusBadRequest)
}

func TestHandler_List(t *testing.T) {
	h, e := newTestHandler()
	h.svc.AddBatch(context.Background(), []Record{{Name: "A"}, {Name: "B"}, {Name: "C"}})

	req := httptest.NewRequest(http.MethodGet, "/medications?limit=2", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Record `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Total != 3 || len(body.Data) != 2 || !body.HasMore {
		t.Errorf("unexpected page: %+v", body)
	}
}

func TestHandler_GetUpdateDelete(t *testing.T) {
	h, e := newTestHandler()
	stored := &Record{Name: "Aspirin", Description: "pain"}
	h.svc.Add(context.Background(), stored)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("does-not-exist")
	expectHTTPError(t, h.Get(c), http.StatusNotFound)

	rec := httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPut, `{"name":"Aspirin","dosage":"300mg"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(stored.ID)
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_CheckInteractions(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Add(context.Background(), &Record{Name: "Aspirin", Description: "pain"})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"medications":[{"name":"Ibuprofen"}]}`), rec)
	if err := h.CheckInteractions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Warnings []Warning `json:"warnings"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %+v", body.Warnings)
	}
}
