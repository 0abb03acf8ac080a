package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes free-text addresses against an OpenStreetMap Nominatim server.
// Requests are spaced by at least minInterval, as the public instance's usage policy requires.
type Nominatim struct {
	baseURL     string
	client      *resty.Client
	userAgent   string
	minInterval time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

type NominatimOption func(*Nominatim)

func WithBaseURL(baseURL string) NominatimOption {
	return func(n *Nominatim) {
		if strings.TrimSpace(baseURL) != "" {
			n.baseURL = baseURL
		}
	}
}

func WithClient(client *resty.Client) NominatimOption {
	return func(n *Nominatim) {
		if client != nil {
			n.client = client
		}
	}
}

func WithUserAgent(userAgent string) NominatimOption {
	return func(n *Nominatim) {
		n.userAgent = userAgent
	}
}

func WithMinInterval(interval time.Duration) NominatimOption {
	return func(n *Nominatim) {
		n.minInterval = interval
	}
}

func NewNominatim(opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:     DefaultNominatimURL,
		client:      resty.New().SetTimeout(30 * time.Second),
		userAgent:   "review-scraper-geocoder/0.1",
		minInterval: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type searchHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{Found: false}, nil
	}
	if n == nil {
		return Result{}, errors.New("geocode: nominatim is nil")
	}

	if err := n.waitRateLimit(ctx); err != nil {
		return Result{}, err
	}

	var hits []searchHit
	req := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"limit":  "1",
			"q":      query,
		}).
		SetHeader("Accept", "application/json").
		SetResult(&hits)
	if strings.TrimSpace(n.userAgent) != "" {
		req.SetHeader("User-Agent", n.userAgent)
	}

	resp, err := req.Get(strings.TrimRight(n.baseURL, "/") + "/search")
	if err != nil {
		return Result{}, fmt.Errorf("geocode: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Result{}, fmt.Errorf("geocode: status %d", resp.StatusCode())
	}
	if len(hits) == 0 {
		return Result{Found: false}, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: longitude: %w", err)
	}
	return Result{Lat: lat, Lng: lng, Found: true}, nil
}

func (n *Nominatim) waitRateLimit(ctx context.Context) error {
	if n.minInterval <= 0 {
		return nil
	}
	n.mu.Lock()
	now := time.Now()
	next := n.lastRequest.Add(n.minInterval)
	if !next.After(now) {
		n.lastRequest = now
		n.mu.Unlock()
		return nil
	}
	n.lastRequest = next
	n.mu.Unlock()

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
