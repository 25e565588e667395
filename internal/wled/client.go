package wled

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/icza/gox/gox"

	"github.com/denwilliams/go-wled-race/internal/logging"
)

const DefaultTimeout = 8 * time.Second

var ErrUnknownEffect = errors.New("unknown effect")

// ConnectionError is returned when the device cannot be reached or does not
// answer like a WLED device.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("error communicating with WLED device at %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type Option func(*Client)

// WithHTTPClient replaces the client's transport. Close will not touch a
// client passed in this way.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.ownsHTTP = false
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

type Client struct {
	address  string
	http     *http.Client
	ownsHTTP bool
	timeout  time.Duration
	device   *Device
}

// Connect fetches the device description from address. Every failure,
// including a reply that is not a WLED document, is a *ConnectionError.
func Connect(ctx context.Context, address string, opts ...Option) (*Client, error) {
	c := &Client{
		address:  address,
		ownsHTTP: true,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Transport: &http.Transport{}}
	}

	if err := c.Update(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Address() string {
	return c.address
}

// Device returns the description loaded by the last Update.
func (c *Client) Device() *Device {
	return c.device
}

// Update reloads the full /json document.
func (c *Client) Update(ctx context.Context) error {
	var device Device
	if err := c.request(ctx, http.MethodGet, "/json", nil, &device); err != nil {
		return err
	}
	if device.Info.Version == "" {
		return &ConnectionError{Address: c.address, Err: errors.New("response is not a WLED device description")}
	}
	c.device = &device
	logging.Debug("WLED %s at %s has %d effects", device.Info.Version, c.address, len(device.Effects))
	return nil
}

// EffectID resolves an effect name against the device's effect list.
func (c *Client) EffectID(name string) (int, error) {
	if c.device == nil {
		return 0, fmt.Errorf("%w: %s (device not loaded)", ErrUnknownEffect, name)
	}
	for i, e := range c.device.Effects {
		if strings.EqualFold(e, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownEffect, name)
}

// Segment updates a single segment.
func (c *Client) Segment(ctx context.Context, req SegmentRequest) error {
	seg := SegmentState{
		ID:         req.Segment,
		On:         gox.NewBool(req.On),
		Brightness: gox.NewInt(req.Brightness),
		Speed:      req.Speed,
	}
	if req.PrimaryColor != nil {
		seg.Colors = [][]int{req.PrimaryColor}
	}
	if req.Effect != "" {
		id, err := c.EffectID(req.Effect)
		if err != nil {
			return err
		}
		seg.Effect = gox.NewInt(id)
	}

	body := stateRequest{
		Transition: req.Transition,
		Segments:   []SegmentState{seg},
	}
	return c.request(ctx, http.MethodPost, "/json/state", body, nil)
}

// Close releases idle connections held by a client-owned transport.
func (c *Client) Close() error {
	if c.ownsHTTP && c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s%s", c.address, path), reader)
	if err != nil {
		return &ConnectionError{Address: c.address, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Address: c.address, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &ConnectionError{Address: c.address, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ConnectionError{Address: c.address, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return nil
}
