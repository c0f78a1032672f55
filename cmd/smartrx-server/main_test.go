package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/config"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
)

const sampleRx = `**Patient Information:**
Name: Ravi Kumar
Gender: Male

**Doctor Information:**
Name: Dr. Mehta

**Medications:**
* **Crocin (Paracetamol): 500mg twice daily**
* **Amoxicillin: 250mg thrice daily**
* **not a medication line**
`

func TestAnalyze(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local)
	res := analyze(context.Background(), sampleRx, now, rand.New(rand.NewSource(1)))

	if res.Doctor != "Dr. Mehta" || res.Patient.Name != "Ravi Kumar" {
		t.Errorf("unexpected header fields: %q %+v", res.Doctor, res.Patient)
	}
	if len(res.Medications) != 2 {
		t.Fatalf("expected 2 medications, got %d: %+v", len(res.Medications), res.Medications)
	}
	if len(res.Skipped) != 1 {
		t.Errorf("expected the malformed line to be skipped, got %v", res.Skipped)
	}
	// One dose and one refill reminder per medication.
	if len(res.Reminders) != 4 {
		t.Errorf("expected 4 reminders, got %d", len(res.Reminders))
	}
	if res.Dashboard.TotalMedications != 2 {
		t.Errorf("expected 2 medications on the dashboard, got %d", res.Dashboard.TotalMedications)
	}
}

func TestAnalyzeCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rx.txt")
	if err := os.WriteFile(path, []byte(sampleRx), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := analyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", path, "--seed", "7"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var res analysis
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(res.Medications) != 2 {
		t.Errorf("expected 2 medications, got %d", len(res.Medications))
	}
}

func testConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                "0",
		Env:                 env,
		Storage:             config.StorageMemory,
		BackendURL:          "http://127.0.0.1:1",
		RxNormURL:           "http://127.0.0.1:1",
		LocatorURL:          "http://127.0.0.1:1",
		HTTPTimeoutSeconds:  1,
		AITimeoutSeconds:    1,
		ReminderPollSeconds: 60,
		CORSOrigins:         []string{"http://localhost:3000"},
		AuthSigningKey:      strings.Repeat("k", 32),
	}
}

func TestBuildApp_Routes(t *testing.T) {
	a, err := buildApp(testConfig(t, "development"), memoryStores(), nil, clock.New(), zerolog.Nop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/db", http.StatusNotFound},
		{http.MethodGet, "/api/v1/medications", http.StatusOK},
		{http.MethodGet, "/api/v1/reminders", http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard", http.StatusOK},
		{http.MethodGet, "/api/v1/prescriptions", http.StatusOK},
		{http.MethodGet, "/api/v1/appointments", http.StatusOK},
		{http.MethodGet, "/api/v1/chat/prompts", http.StatusOK},
		{http.MethodGet, "/api/v1/notifications", http.StatusOK},
		{http.MethodGet, "/api/v1/locator/directions?from_lat=1&from_lng=2&to_lat=3&to_lng=4", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.echo.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("expected a request id on every response")
			}
		})
	}
}

func TestBuildApp_ProductionRequiresToken(t *testing.T) {
	a, err := buildApp(testConfig(t, "production"), memoryStores(), nil, clock.New(), zerolog.Nop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/medications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health must stay public, got %d", rec.Code)
	}
}
