// Package video talks to the external video-conferencing room provider.
package video

import (
	"context"
	"fmt"
	"time"
)

// Room is a provider-side meeting room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"-"`
}

// Provider creates and deletes rooms by name.
type Provider interface {
	CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*Room, error)
	DeleteRoom(ctx context.Context, name string) error
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("video provider returned %d: %s", e.Status, e.Message)
}
