package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *DailyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDailyClient(DailyConfig{BaseURL: srv.URL + "/", APIKey: "key"}, zerolog.Nop())
}

func TestCreateRoom(t *testing.T) {
	exp := time.Date(2024, time.January, 3, 13, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req createRoomRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "session-abc", req.Name)
		assert.Equal(t, exp.Unix(), req.Properties.Exp)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "r-1", "name": req.Name, "url": "https://rooms.example/session-abc",
		})
	})

	room, err := client.CreateRoom(context.Background(), "session-abc", exp)
	require.NoError(t, err)
	assert.Equal(t, "r-1", room.ID)
	assert.Equal(t, "https://rooms.example/session-abc", room.URL)
	assert.Equal(t, exp, room.ExpiresAt)
}

func TestCreateRoom_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid-request-error","info":"name taken"}`))
	})

	_, err := client.CreateRoom(context.Background(), "dup", time.Now())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "name taken")
}

func TestDeleteRoom(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/rooms/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "/rooms/session-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"deleted":true}`))
	})

	require.NoError(t, client.DeleteRoom(context.Background(), "session-1"))
	require.NoError(t, client.DeleteRoom(context.Background(), "gone"))
	assert.Equal(t, 2, calls)
}

func TestDeleteRoom_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.DeleteRoom(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}
