// Package client talks to a running carprice API server.
package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"carprice/internal/api"
	"carprice/internal/car"
	"carprice/internal/ml"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("carprice: status %d", e.Status)
	}
	return fmt.Sprintf("carprice: %d %s", e.Status, e.Message)
}

// predictBody mirrors the request keys the server expects.
type predictBody struct {
	Brand          string  `json:"brand"`
	Year           int     `json:"year"`
	Mileage        float64 `json:"mileage"`
	FuelType       string  `json:"fuelType"`
	Transmission   string  `json:"transmission"`
	EngineSize     float64 `json:"engineSize"`
	Horsepower     int     `json:"horsepower"`
	BodyType       string  `json:"bodyType"`
	Doors          int     `json:"doors"`
	PreviousOwners int     `json:"previousOwners"`
}

// Client calls the prediction API over HTTP.
type Client struct {
	base string
	rest *resty.Client
}

// New returns a Client for the server at base. A non-positive timeout
// falls back to 5s.
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Predict prices rec on the server.
func (c *Client) Predict(ctx context.Context, rec car.Record) (*api.PredictResponse, error) {
	result := &api.PredictResponse{}
	apiErr := &api.ErrorResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(predictBody(rec)).
		SetResult(result).
		SetError(apiErr).
		Post(c.base + "/api/predict")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error, Fields: apiErr.Fields}
	}
	return result, nil
}

// Info fetches the state of the server's model.
func (c *Client) Info(ctx context.Context) (ml.ModelInfo, error) {
	var info ml.ModelInfo
	err := c.get(ctx, "/api/model-info", nil, &info)
	return info, err
}

// Health fetches the server's health report.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var health api.HealthResponse
	err := c.get(ctx, "/api/health", nil, &health)
	return health, err
}

// History lists up to limit recent predictions.
func (c *Client) History(ctx context.Context, limit int) (api.HistoryResponse, error) {
	var history api.HistoryResponse
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	err := c.get(ctx, "/api/history", params, &history)
	return history, err
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	apiErr := &api.ErrorResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		SetError(apiErr).
		Get(c.base + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	return nil
}
