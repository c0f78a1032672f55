package locator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

// Place is a hospital as returned by the locator API. Zero coordinates mean
// the upstream did not know the location.
type Place struct {
	ID      httpclient.ID `json:"id"`
	Name    string        `json:"name"`
	Address string        `json:"address"`
	Lat     float64       `json:"lat"`
	Lon     float64       `json:"lon"`
}

// HospitalSource lists hospitals around a position.
type HospitalSource interface {
	NearbyHospitals(ctx context.Context, pos Position) ([]Place, error)
}

// Pharmacy is a nearby pharmacy.
type Pharmacy struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PharmacySource lists pharmacies around a position.
type PharmacySource interface {
	NearbyPharmacies(ctx context.Context, pos Position) ([]Pharmacy, error)
}

// Hospital is a place decorated for display.
type Hospital struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Location         Position `json:"location"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	DistanceKm       float64  `json:"distance_km"`
	TravelMinutes    int      `json:"travel_minutes"`
	DirectionsURL    string   `json:"directions_url"`
}

// Client calls the hospital locator API.
type Client struct {
	client *httpclient.Client
}

// NewClient wraps a client whose BaseURL points at the locator.
func NewClient(client *httpclient.Client) *Client {
	return &Client{client: client}
}

func (c *Client) NearbyHospitals(ctx context.Context, pos Position) ([]Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Lng, 'f', -1, 64))
	var places []Place
	if err := c.client.DoJSON(ctx, http.MethodGet, "/api/hospitals?"+q.Encode(), nil, &places); err != nil {
		return nil, fmt.Errorf("fetch hospitals: %w", err)
	}
	return places, nil
}

type Service struct {
	hospitals  HospitalSource
	pharmacies PharmacySource
	logger     zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService wires the sources. rng may be nil, in which case a time-seeded
// source is used; pharmacies may be nil.
func NewService(hospitals HospitalSource, pharmacies PharmacySource, rng *rand.Rand, logger zerolog.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Service{hospitals: hospitals, pharmacies: pharmacies, rng: rng, logger: logger}
}

// Hospitals returns the hospitals near pos whose name or vicinity contains
// query. Places without coordinates are placed within about half a kilometre
// of pos; ratings and review counts are estimates.
func (s *Service) Hospitals(ctx context.Context, pos Position, query string) ([]Hospital, error) {
	places, err := s.hospitals.NearbyHospitals(ctx, pos)
	if err != nil {
		return nil, err
	}
	out := make([]Hospital, 0, len(places))
	s.mu.Lock()
	for i, p := range places {
		out = append(out, s.decorate(i, p, pos))
	}
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(out)).Float64("lat", pos.Lat).Float64("lng", pos.Lng).Msg("hospitals fetched")
	return Search(out, query), nil
}

// decorate must be called with s.mu held.
func (s *Service) decorate(i int, p Place, from Position) Hospital {
	loc := Position{Lat: p.Lat, Lng: p.Lon}
	if loc.Lat == 0 {
		loc.Lat = from.Lat + (s.rng.Float64()-0.5)*0.01
	}
	if loc.Lng == 0 {
		loc.Lng = from.Lng + (s.rng.Float64()-0.5)*0.01
	}
	km := Distance(from, loc)

	h := Hospital{
		ID:               p.ID.String(),
		Name:             p.Name,
		Vicinity:         p.Address,
		Location:         loc,
		Rating:           roundTo(s.rng.Float64()*2+3, 1),
		UserRatingsTotal: s.rng.Intn(500),
		DistanceKm:       roundTo(km, 1),
		TravelMinutes:    TravelMinutes(km),
		DirectionsURL:    DirectionsURL(from, loc),
	}
	if h.ID == "" {
		h.ID = fmt.Sprintf("hospital-%d", i)
	}
	if h.Name == "" {
		h.Name = "Hospital"
	}
	if h.Vicinity == "" {
		h.Vicinity = "Address not available"
	}
	return h
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Search keeps hospitals whose name or vicinity contains q, case-insensitively.
// A blank q keeps everything.
func Search(hospitals []Hospital, q string) []Hospital {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return hospitals
	}
	out := []Hospital{}
	for _, h := range hospitals {
		if strings.Contains(strings.ToLower(h.Name), q) || strings.Contains(strings.ToLower(h.Vicinity), q) {
			out = append(out, h)
		}
	}
	return out
}

// Pharmacies returns pharmacies near pos.
func (s *Service) Pharmacies(ctx context.Context, pos Position) ([]Pharmacy, error) {
	if s.pharmacies == nil {
		return []Pharmacy{}, nil
	}
	return s.pharmacies.NearbyPharmacies(ctx, pos)
}
