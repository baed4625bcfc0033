// Package api wraps the /dm/* backend endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to one backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    20,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns the entries of a local directory.
func (c *Client) List(ctx context.Context, path string) (*models.ListResponse, error) {
	var resp models.ListResponse
	if err := c.postJSON(ctx, "/dm/list", models.ListRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SSHList returns the entries of a remote directory.
func (c *Client) SSHList(ctx context.Context, connectionID, path string) (*models.ListResponse, error) {
	var resp models.ListResponse
	req := models.ListRequest{Path: path, ConnectionID: connectionID}
	if err := c.postJSON(ctx, "/dm/ssh/list", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewURL is the URL serving the raw bytes of path. A non-empty
// connectionID targets a remote session.
func (c *Client) PreviewURL(path, connectionID string) string {
	q := url.Values{}
	q.Set("path", path)
	if connectionID != "" {
		q.Set("connection_id", connectionID)
	}
	return c.baseURL + "/dm/preview?" + q.Encode()
}

// FetchBytes downloads path.
func (c *Client) FetchBytes(ctx context.Context, path, connectionID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PreviewURL(path, connectionID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "preview")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("preview", "failed to read response", err)
	}
	return data, nil
}

// Info returns metadata for a single path.
func (c *Client) Info(ctx context.Context, path, connectionID string) (*models.FileItem, error) {
	var resp models.InfoResponse
	req := models.InfoRequest{Path: path, ConnectionID: connectionID}
	if err := c.postJSON(ctx, "/dm/info", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Info, nil
}

// CreateFile creates filename inside directory with the given content.
func (c *Client) CreateFile(ctx context.Context, req models.CreateFileRequest) (*models.CreateResponse, error) {
	var resp models.CreateResponse
	if err := c.postJSON(ctx, "/dm/create/file", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateDirectory creates dirname inside directory.
func (c *Client) CreateDirectory(ctx context.Context, req models.CreateDirectoryRequest) (*models.CreateResponse, error) {
	var resp models.CreateResponse
	if err := c.postJSON(ctx, "/dm/create/directory", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes path, moving it to the trash when useTrash is set.
func (c *Client) Delete(ctx context.Context, path string, useTrash bool, connectionID string) error {
	var resp models.SuccessResponse
	req := models.DeleteRequest{Path: path, UseTrash: useTrash, ConnectionID: connectionID}
	return c.postJSON(ctx, "/dm/delete", req, &resp)
}

// SSHConnect opens a remote session.
func (c *Client) SSHConnect(ctx context.Context, req models.SSHConnectRequest) (*models.SSHConnection, error) {
	var resp models.SSHConnection
	if err := c.postJSON(ctx, "/dm/ssh/connect", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SSHDisconnect closes a remote session.
func (c *Client) SSHDisconnect(ctx context.Context, connectionID string) error {
	var resp models.SuccessResponse
	return c.postJSON(ctx, "/dm/ssh/disconnect", models.SSHDisconnectRequest{ConnectionID: connectionID}, &resp)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewNetworkError(endpoint, fmt.Sprintf("invalid response from %s", endpoint), err)
	}
	return nil
}

// do sends req and converts transport failures and non-2xx statuses
// into errors. On success the caller owns resp.Body.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Debug("backend request failed", logging.String("op", op), logging.Err(err))
		return nil, apperrors.NewNetworkError(op, "backend unreachable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// decodeError builds an *Error from a failed response. The message is
// the body's "error" field, else its "message" field, else "HTTP <status>".
func decodeError(resp *http.Response) *Error {
	fallback := fmt.Sprintf("HTTP %d", resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: fallback}
	}
	var body struct {
		Error   *string `json:"error"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return &Error{Status: resp.StatusCode, Message: fallback}
	}
	switch {
	case body.Error != nil:
		return &Error{Status: resp.StatusCode, Message: *body.Error}
	case body.Message != nil:
		return &Error{Status: resp.StatusCode, Message: *body.Message}
	}
	return &Error{Status: resp.StatusCode, Message: fallback}
}
