package locator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

func TestDistance(t *testing.T) {
	mumbai := Position{Lat: 19.0760, Lng: 72.8777}
	delhi := Position{Lat: 28.7041, Lng: 77.1025}
	got := Distance(mumbai, delhi)
	if math.Abs(got-1153) > 5 {
		t.Errorf("Mumbai-Delhi = %.1f km, want about 1153", got)
	}
	if d := Distance(mumbai, mumbai); d != 0 {
		t.Errorf("distance to self = %v", d)
	}
	if math.Abs(Distance(mumbai, delhi)-Distance(delhi, mumbai)) > 1e-9 {
		t.Error("distance must be symmetric")
	}
}

func TestTravelMinutes(t *testing.T) {
	tests := map[float64]int{0: 0, 1: 3, 1.5: 5, 2.4: 7, 10: 30}
	for km, want := range tests {
		if got := TravelMinutes(km); got != want {
			t.Errorf("TravelMinutes(%v) = %d, want %d", km, got, want)
		}
	}
}

func TestDirectionsURL(t *testing.T) {
	got := DirectionsURL(Position{Lat: 19.076, Lng: 72.8777}, Position{Lat: 19.1, Lng: -72.5})
	want := "https://www.openstreetmap.org/directions?from=19.076,72.8777&to=19.1,-72.5"
	if got != want {
		t.Errorf("DirectionsURL = %q, want %q", got, want)
	}
}

type fakeHospitals struct {
	places []Place
	err    error
}

func (f fakeHospitals) NearbyHospitals(context.Context, Position) ([]Place, error) {
	return f.places, f.err
}

func TestService_Hospitals(t *testing.T) {
	from := Position{Lat: 19.0, Lng: 72.0}
	src := fakeHospitals{places: []Place{
		{ID: "h1", Name: "City Hospital", Address: "MG Road", Lat: 19.01, Lon: 72.0},
		{Name: "", Address: ""},
	}}
	svc := NewService(src, nil, rand.New(rand.NewSource(1)), zerolog.Nop())

	got, err := svc.Hospitals(context.Background(), from, "")
	if err != nil {
		t.Fatalf("Hospitals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hospitals, got %d", len(got))
	}

	h := got[0]
	if h.DistanceKm != 1.1 || h.TravelMinutes != 3 {
		t.Errorf("unexpected distance/time: %+v", h)
	}
	if h.Rating < 3 || h.Rating > 5 || h.UserRatingsTotal < 0 || h.UserRatingsTotal >= 500 {
		t.Errorf("estimates out of range: %+v", h)
	}
	if !strings.Contains(h.DirectionsURL, "to=19.01,72") {
		t.Errorf("unexpected directions url %q", h.DirectionsURL)
	}

	anon := got[1]
	if anon.ID != "hospital-1" || anon.Name != "Hospital" || anon.Vicinity != "Address not available" {
		t.Errorf("defaults not applied: %+v", anon)
	}
	if anon.DistanceKm > 1 || math.Abs(anon.Location.Lat-from.Lat) > 0.005 {
		t.Errorf("jittered location too far: %+v", anon)
	}
	if math.Abs(Distance(from, anon.Location)-anon.DistanceKm) > 0.05 {
		t.Errorf("distance must be computed from the reported location: %+v", anon)
	}
}

func TestSearch(t *testing.T) {
	hs := []Hospital{{Name: "City Hospital", Vicinity: "MG Road"}, {Name: "Lilavati", Vicinity: "Bandra West"}}
	if got := Search(hs, "  "); len(got) != 2 {
		t.Errorf("blank query should keep all, got %d", len(got))
	}
	if got := Search(hs, "bandra"); len(got) != 1 || got[0].Name != "Lilavati" {
		t.Errorf("vicinity match failed: %+v", got)
	}
	if got := Search(hs, "CITY"); len(got) != 1 {
		t.Errorf("name match should be case-insensitive: %+v", got)
	}
	if got := Search(hs, "nowhere"); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestClient_NearbyHospitals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/hospitals" || r.URL.Query().Get("lat") != "19.076" || r.URL.Query().Get("lon") != "72.8777" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`[{"id":7,"name":"KEM","address":"Parel","lat":19.0,"lon":72.84}]`))
	}))
	defer srv.Close()

	hc, _ := httpclient.New(srv.URL, 0)
	places, err := NewClient(hc).NearbyHospitals(context.Background(), DefaultPosition)
	if err != nil {
		t.Fatalf("NearbyHospitals: %v", err)
	}
	if len(places) != 1 || places[0].ID != "7" || places[0].Name != "KEM" {
		t.Errorf("unexpected places: %+v", places)
	}
}

func TestHandler_Hospitals(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewService(fakeHospitals{places: []Place{{ID: "1", Name: "KEM", Lat: 19.0, Lon: 72.84}}}, nil, nil, zerolog.Nop()))

	rec := httptest.NewRecorder()
	if err := h.Hospitals(e.NewContext(httptest.NewRequest(http.MethodGet, "/locator/hospitals?lat=19.07&lng=72.87", nil), rec)); err != nil {
		t.Fatalf("hospitals: %v", err)
	}
	var got []Hospital
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 1 || got[0].Name != "KEM" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	err := h.Hospitals(e.NewContext(httptest.NewRequest(http.MethodGet, "/locator/hospitals?lat=abc&lng=1", nil), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}

	failing := NewHandler(NewService(fakeHospitals{err: errors.New("down")}, nil, nil, zerolog.Nop()))
	err = failing.Hospitals(e.NewContext(httptest.NewRequest(http.MethodGet, "/locator/hospitals", nil), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %v", err)
	}
}

func TestHandler_Directions(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewService(fakeHospitals{}, nil, nil, zerolog.Nop()))

	err := h.Directions(e.NewContext(httptest.NewRequest(http.MethodGet, "/locator/directions", nil), httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without destination, got %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/locator/directions?from_lat=19&from_lng=72&to_lat=19.01&to_lng=72", nil)
	if err := h.Directions(e.NewContext(req, rec)); err != nil {
		t.Fatalf("directions: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"travel_minutes":3`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
