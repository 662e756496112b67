package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultAPIURL    = "https://webexapis.com/v1"
	DefaultDeviceURL = "https://wdm-a.wbx2.com/wdm/api/v1"
)

// API is the collaborator surface the dispatch engine consumes.
// Tests substitute fakes for it.
type API interface {
	DeviceList(ctx context.Context) ([]Device, error)
	DeviceCreate(ctx context.Context, desc DeviceDescriptor) (*Device, error)
	MessageGet(ctx context.Context, id string) (*Message, error)
	MessageCreate(ctx context.Context, draft *Response) (*Message, error)
	MessageDelete(ctx context.Context, id string) error
	AttachmentActionGet(ctx context.Context, id string) (*AttachmentAction, error)
	MembershipList(ctx context.Context, roomID, personEmail string) ([]Membership, error)
	Me(ctx context.Context) (*Person, error)
	ObjectID(ctx context.Context, objectURL string) (string, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	apiURL     string
	deviceURL  string
	token      string
	trackingID string
	http       *http.Client
}

type ClientOption func(*Client)

func WithAPIURL(u string) ClientOption {
	return func(c *Client) { c.apiURL = u }
}

func WithDeviceURL(u string) ClientOption {
	return func(c *Client) { c.deviceURL = u }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiURL:     DefaultAPIURL,
		deviceURL:  DefaultDeviceURL,
		token:      token,
		trackingID: "go-spark-bot_" + uuid.NewString(),
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackingID is attached to every request for backend-side log
// correlation.
func (c *Client) TrackingID() string {
	return c.trackingID
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("TrackingID", c.trackingID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, rawURL, err)
	}
	return nil
}

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (c *Client) DeviceList(ctx context.Context) ([]Device, error) {
	var out struct {
		Devices []Device `json:"devices"`
	}
	if err := c.do(ctx, http.MethodGet, c.deviceURL+"/devices", nil, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

func (c *Client) DeviceCreate(ctx context.Context, desc DeviceDescriptor) (*Device, error) {
	var dev Device
	if err := c.do(ctx, http.MethodPost, c.deviceURL+"/devices", desc, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

func (c *Client) MessageGet(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/messages/"+url.PathEscape(id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) MessageCreate(ctx context.Context, draft *Response) (*Message, error) {
	var msg Message
	if err := c.do(ctx, http.MethodPost, c.apiURL+"/messages", draft, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) MessageDelete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.apiURL+"/messages/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AttachmentActionGet(ctx context.Context, id string) (*AttachmentAction, error) {
	var action AttachmentAction
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/attachment/actions/"+url.PathEscape(id), nil, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

func (c *Client) MembershipList(ctx context.Context, roomID, personEmail string) ([]Membership, error) {
	q := url.Values{}
	q.Set("roomId", roomID)
	if personEmail != "" {
		q.Set("personEmail", personEmail)
	}
	var out struct {
		Items []Membership `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/memberships?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Me(ctx context.Context) (*Person, error) {
	var p Person
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/people/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ObjectID resolves a conversation-service object address to the
// backend-assigned object id. The conversation URL may point at a
// different data-center than the one serving individual objects, so
// the id must come from the object itself.
func (c *Client) ObjectID(ctx context.Context, objectURL string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, objectURL, nil, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("object at %s has no id", objectURL)
	}
	return out.ID, nil
}
