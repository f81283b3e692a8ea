// Package places looks up grocery stores and geocodes addresses through the
// Google Places and Geocoding web APIs.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/models"
)

const (
	defaultRetries   = 2
	defaultRetryWait = 100 * time.Millisecond
)

// ErrMissingAPIKey is wrapped in a badRequest ProviderError when no key is
// configured.
var ErrMissingAPIKey = errors.New("places API key is not configured")

// Client calls the places provider.
type Client struct {
	http            *resty.Client
	endpoint        string
	geocodeEndpoint string
	apiKey          string
	radiusMeters    float64
	category        string
	logger          *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.http.SetRetryCount(n) }
}

// New builds a client from the [places] section.
func New(cfg config.PlacesConfig, opts ...Option) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(defaultRetries).
		SetRetryWaitTime(defaultRetryWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	c := &Client{
		http:            httpClient,
		endpoint:        cfg.Endpoint,
		geocodeEndpoint: cfg.GeocodeEndpoint,
		apiKey:          cfg.APIKey,
		radiusMeters:    cfg.SearchRadiusMeters,
		category:        cfg.Category,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("places")
	return c
}

type latLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type geometry struct {
	Location *latLng `json:"location"`
}

type nearbyResult struct {
	PlaceID  *string   `json:"place_id"`
	Name     *string   `json:"name"`
	Vicinity *string   `json:"vicinity"`
	Geometry *geometry `json:"geometry"`
}

type nearbyResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []nearbyResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string    `json:"formatted_address"`
	Geometry         *geometry `json:"geometry"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

// Nearby returns every store of category within radiusMeters of coord.
// Zero radius or empty category fall back to the configured values.
// Results missing an id, name, address or position are skipped.
func (c *Client) Nearby(ctx context.Context, coord models.Coordinate, radiusMeters float64, category string) ([]models.StoreLocation, error) {
	const op = "nearby"

	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = c.radiusMeters
	}
	if category == "" {
		category = c.category
	}

	var body nearbyResponse
	err := c.get(ctx, op, c.endpoint, map[string]string{
		"location": strconv.FormatFloat(coord.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
		"radius":   strconv.Itoa(int(radiusMeters)),
		"type":     category,
	}, &body)
	if err != nil {
		return nil, err
	}

	if err := statusError(op, body.Status, body.ErrorMessage); err != nil {
		return nil, err
	}

	stores := make([]models.StoreLocation, 0, len(body.Results))
	for _, r := range body.Results {
		store, ok := r.toStore()
		if !ok {
			continue
		}
		stores = append(stores, store)
	}
	if len(stores) == 0 {
		return nil, &models.ProviderError{Kind: models.ProviderNoResults, Op: op}
	}

	c.logger.Debug("nearby stores fetched",
		zap.Stringer("origin", coord),
		zap.Int("results", len(body.Results)),
		zap.Int("usable", len(stores)))
	return stores, nil
}

func (r nearbyResult) toStore() (models.StoreLocation, bool) {
	if r.PlaceID == nil || r.Name == nil || r.Vicinity == nil ||
		r.Geometry == nil || r.Geometry.Location == nil ||
		r.Geometry.Location.Lat == nil || r.Geometry.Location.Lng == nil {
		return models.StoreLocation{}, false
	}
	s := models.StoreLocation{
		ID:        *r.PlaceID,
		Name:      *r.Name,
		Address:   *r.Vicinity,
		Latitude:  *r.Geometry.Location.Lat,
		Longitude: *r.Geometry.Location.Lng,
	}
	if s.Validate() != nil {
		return models.StoreLocation{}, false
	}
	return s, true
}

// ResolveAddress geocodes free text to a coordinate.
func (c *Client) ResolveAddress(ctx context.Context, text string) (models.Coordinate, error) {
	const op = "geocode"

	if text == "" {
		return models.Coordinate{}, &models.ValidationError{Field: "address", Reason: "must not be empty"}
	}

	var body geocodeResponse
	if err := c.get(ctx, op, c.geocodeEndpoint, map[string]string{"address": text}, &body); err != nil {
		return models.Coordinate{}, err
	}

	if err := statusError(op, body.Status, body.ErrorMessage); err != nil {
		return models.Coordinate{}, err
	}

	for _, r := range body.Results {
		if r.Geometry == nil || r.Geometry.Location == nil || r.Geometry.Location.Lat == nil || r.Geometry.Location.Lng == nil {
			continue
		}
		coord := models.Coordinate{Latitude: *r.Geometry.Location.Lat, Longitude: *r.Geometry.Location.Lng}
		if coord.Validate() != nil {
			continue
		}
		return coord, nil
	}
	return models.Coordinate{}, &models.ProviderError{Kind: models.ProviderNoResults, Op: op}
}

func (c *Client) get(ctx context.Context, op, endpoint string, params map[string]string, out any) error {
	if c.apiKey == "" {
		return &models.ProviderError{Kind: models.ProviderBadRequest, Op: op, Err: ErrMissingAPIKey}
	}
	if endpoint == "" {
		return &models.ProviderError{Kind: models.ProviderBadRequest, Op: op, Err: errors.New("endpoint is not configured")}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("key", c.apiKey).
		Get(endpoint)
	if err != nil {
		return &models.ProviderError{Kind: models.ProviderNetwork, Op: op, Err: err}
	}

	switch code := resp.StatusCode(); {
	case code >= 500:
		return &models.ProviderError{Kind: models.ProviderNetwork, Op: op, Err: fmt.Errorf("HTTP %d", code)}
	case code >= 400:
		return &models.ProviderError{Kind: models.ProviderBadRequest, Op: op, Err: fmt.Errorf("HTTP %d", code)}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &models.ProviderError{Kind: models.ProviderParsing, Op: op, Err: err}
	}
	return nil
}

// statusError maps the API's status field to a ProviderError.
func statusError(op, status, message string) error {
	var kind models.ProviderErrorKind
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		kind = models.ProviderNoResults
	case "REQUEST_DENIED", "INVALID_REQUEST":
		kind = models.ProviderBadRequest
	case "":
		return &models.ProviderError{Kind: models.ProviderParsing, Op: op, Err: errors.New("response has no status")}
	default:
		// OVER_QUERY_LIMIT, UNKNOWN_ERROR
		kind = models.ProviderNetwork
	}

	err := errors.New(status)
	if message != "" {
		err = fmt.Errorf("%s: %s", status, message)
	}
	return &models.ProviderError{Kind: kind, Op: op, Err: err}
}
