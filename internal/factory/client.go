// Package factory is the client for the external pizza factory that
// fulfills persisted orders.
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

// Client calls the factory's order endpoint with the service's API key.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Result is the factory's answer for a fulfilled order: a verification JWT
// and a URL for reporting slow pizzas.
type Result struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// Error carries the factory's report URL so the caller can surface it to the
// diner even when fulfillment failed.
type Error struct {
	ReportURL string
}

func (e *Error) Error() string { return "pizza factory rejected the order" }

type orderRequest struct {
	Diner diner            `json:"diner"`
	Order model.DinerOrder `json:"order"`
}

type diner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateOrder reports the persisted order to the factory. A non-2xx answer
// is returned as *Error with the factory's report URL.
func (c *Client) CreateOrder(ctx context.Context, user model.User, order model.DinerOrder) (Result, error) {
	body, err := json.Marshal(orderRequest{
		Diner: diner{ID: user.ID, Name: user.Name, Email: user.Email},
		Order: order,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/order", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode < 300 {
		return Result{}, err
	}
	if resp.StatusCode >= 300 {
		return Result{}, &Error{ReportURL: result.ReportURL}
	}
	return result, nil
}
