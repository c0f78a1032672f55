package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/prescriptions/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestHandler_UploadAndList(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := h.Upload(e.NewContext(uploadRequest(t, "rx.png", "image"), rec)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var res UploadResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Prescription.Doctor != "Dr. Mehta" || len(res.Reminders) != 6 {
		t.Errorf("unexpected upload result: %+v", res)
	}

	rec = httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/prescriptions", nil), rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []Prescription
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 {
		t.Errorf("expected 1 prescription, got %d", len(items))
	}
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	h := NewHandler(newTestEnv().svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/prescriptions/upload", nil)
	err := h.Upload(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Upload_NoMedications(t *testing.T) {
	env := newTestEnv()
	env.analyzer.analysis = &Analysis{StructuredText: "nothing useful"}
	h := NewHandler(env.svc)
	e := echo.New()
	err := h.Upload(e.NewContext(uploadRequest(t, "rx.png", "image"), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %v", err)
	}
}

func TestHandler_Parse(t *testing.T) {
	h := NewHandler(newTestEnv().svc)
	e := echo.New()
	body, _ := json.Marshal(parseRequest{StructuredText: analyzerRx})
	req := httptest.NewRequest(http.MethodPost, "/prescriptions/parse", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Parse(e.NewContext(req, rec)); err != nil {
		t.Fatalf("parse: %v", err)
	}
	var res ParseResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if len(res.Medications) != 3 || res.Doctor != "Dr. Mehta" {
		t.Errorf("unexpected parse result: %+v", res)
	}
}

func TestHandler_EmergencyDoc(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()
	env.svc.Upload(context.Background(), "rx.png", strings.NewReader("x"))

	req := httptest.NewRequest(http.MethodPost, "/prescriptions/emergency-doc", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.EmergencyDoc(e.NewContext(req, rec)); err != nil {
		t.Fatalf("emergency doc: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "http://docs/rx.pdf") {
		t.Errorf("expected url in body, got %s", rec.Body.String())
	}
}

func TestHandler_DeleteNotFound(t *testing.T) {
	h := NewHandler(newTestEnv().svc)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	err := h.Delete(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
