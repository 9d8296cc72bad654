// Package cartapi is the storefront's client for the JSON API served by
// cmd/api. Sessions ride on the univendor.sid cookie held in a cookie jar.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"univendor/internal/api"
)

// GenericError is reported when a failed response carries no error text.
const GenericError = "request failed"

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// MessageOf returns the server's error text for err, or fallback when err
// is not an APIError or carried no text.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != GenericError && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the API at baseURL. A nil httpClient gets a
// 15 second timeout; the client's jar is replaced when it has none.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}
	return &Client{base: u, http: httpClient}, nil
}

// SessionToken returns the current session cookie value, if any.
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == api.SessionCookie {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken installs a previously saved session. An empty token
// drops the session.
func (c *Client) SetSessionToken(token string) {
	ck := &http.Cookie{Name: api.SessionCookie, Value: token, Path: "/"}
	if token == "" {
		ck.MaxAge = -1
	}
	c.http.Jar.SetCookies(c.base, []*http.Cookie{ck})
}

func (c *Client) ListCart(ctx context.Context) ([]api.CartItem, error) {
	var items []api.CartItem
	if err := c.do(ctx, http.MethodGet, api.CartCollection, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []api.CartItem{}
	}
	return items, nil
}

func (c *Client) AddCartItem(ctx context.Context, req api.AddCartItemRequest) (api.CartItem, error) {
	var item api.CartItem
	err := c.do(ctx, http.MethodPost, api.CartCollection, req, &item)
	return item, err
}

// UpdateCartItem sets a line's quantity. Always PUT.
func (c *Client) UpdateCartItem(ctx context.Context, id string, quantity int) (api.CartItem, error) {
	var item api.CartItem
	err := c.do(ctx, http.MethodPut, api.CartCollection+"/"+url.PathEscape(id), api.UpdateCartItemRequest{Quantity: quantity}, &item)
	return item, err
}

func (c *Client) RemoveCartItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, api.CartCollection+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, api.Auth+"/send-otp", api.SendOTPRequest{Email: email}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) (api.AuthResponse, error) {
	var out api.AuthResponse
	err := c.do(ctx, http.MethodPost, api.Auth+"/verify-otp", api.VerifyOTPRequest{Email: email, Code: code}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error) {
	var out api.AuthResponse
	err := c.do(ctx, http.MethodPost, api.Auth+"/register", req, &out)
	return out, err
}

func (c *Client) LoginWithEmail(ctx context.Context, email string) (api.AuthResponse, error) {
	var out api.AuthResponse
	err := c.do(ctx, http.MethodPost, api.Auth+"/login", api.LoginRequest{Email: email}, &out)
	return out, err
}

// Logout ends the session on the server and forgets it locally either way.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, api.Auth+"/logout", nil, nil)
	c.SetSessionToken("")
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (api.User, error) {
	var u api.User
	err := c.do(ctx, http.MethodGet, api.Auth+"/user", nil, &u)
	return u, err
}

func (c *Client) PlaceOrder(ctx context.Context, addr api.ShippingAddress) (api.Order, error) {
	var o api.Order
	err := c.do(ctx, http.MethodPost, api.Orders, api.PlaceOrderRequest{ShippingAddress: addr}, &o)
	return o, err
}

func (c *Client) Orders(ctx context.Context) ([]api.Order, error) {
	var orders []api.Order
	err := c.do(ctx, http.MethodGet, api.Orders, nil, &orders)
	return orders, err
}

// Products lists the catalog, optionally filtered by vendor key.
func (c *Client) Products(ctx context.Context, vendor string) ([]api.Product, error) {
	path := api.Products
	if vendor != "" {
		path += "?" + url.Values{"vendor": {vendor}}.Encode()
	}
	var products []api.Product
	err := c.do(ctx, http.MethodGet, path, nil, &products)
	return products, err
}

func (c *Client) Product(ctx context.Context, id string) (api.Product, error) {
	var p api.Product
	err := c.do(ctx, http.MethodGet, api.Products+"/"+url.PathEscape(id), nil, &p)
	return p, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+api.Prefix+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body api.ErrorResponse
	msg := GenericError
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Error) != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
