package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DailyConfig configures DailyClient.
type DailyConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DailyClient implements Provider against a Daily-style REST API.
type DailyClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewDailyClient creates a provider client.
func NewDailyClient(cfg DailyConfig, logger zerolog.Logger) *DailyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DailyClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "video").Logger(),
	}
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type roomProperties struct {
	Exp int64 `json:"exp"`
}

type providerError struct {
	Error string `json:"error"`
	Info  string `json:"info"`
}

// CreateRoom creates a private room that expires at expiresAt.
func (c *DailyClient) CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*Room, error) {
	body, err := json.Marshal(createRoomRequest{
		Name:       name,
		Privacy:    "private",
		Properties: roomProperties{Exp: expiresAt.Unix()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode room request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/rooms", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("failed to decode room response: %w", err)
	}
	room.ExpiresAt = expiresAt

	c.logger.Info().Str("room", room.Name).Time("expiresAt", expiresAt).Msg("Video room created")
	return &room, nil
}

// DeleteRoom deletes a room by name. A missing room is not an error.
func (c *DailyClient) DeleteRoom(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn().Str("room", name).Msg("Video room already gone")
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	c.logger.Info().Str("room", name).Msg("Video room deleted")
	return nil
}

func (c *DailyClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video provider request failed: %w", err)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var pe providerError
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &pe) == nil && (pe.Info != "" || pe.Error != "") {
		msg = strings.TrimSpace(pe.Error + " " + pe.Info)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
