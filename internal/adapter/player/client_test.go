package player

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Play(t *testing.T) {
	var gotPath, gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotURL = body["url"]
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Play(context.Background(), "media_player.kitchen", "http://audio/alert.wav")
	require.NoError(t, err)

	assert.Equal(t, "/players/media_player.kitchen/play", gotPath)
	assert.Equal(t, "http://audio/alert.wav", gotURL)
}

func TestClient_PlayErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Play(context.Background(), "media_player.kitchen", "http://audio/alert.wav")
	assert.ErrorContains(t, err, "status 502")
}

func TestClient_IsIdle(t *testing.T) {
	state := "playing"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/media_player.kitchen", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"state": state})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	idle, err := client.IsIdle(context.Background(), "media_player.kitchen")
	require.NoError(t, err)
	assert.False(t, idle)

	state = "idle"
	idle, err = client.IsIdle(context.Background(), "media_player.kitchen")
	require.NoError(t, err)
	assert.True(t, idle)
}

func TestClient_IsIdleServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.IsIdle(context.Background(), "media_player.kitchen")
	assert.ErrorContains(t, err, "status 500")
}
