package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

func TestEditOriginal_Success(t *testing.T) {
	var gotMethod, gotPath, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotContent = payload["content"]

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewDeliveryService(Config{BaseURL: server.URL})

	err := svc.EditOriginal(context.Background(), "app123", "tok456", "According to the archives…")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/webhooks/app123/tok456/messages/@original", gotPath)
	assert.Equal(t, "According to the archives…", gotContent)
}

func TestEditOriginal_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewDeliveryService(Config{BaseURL: server.URL})

	err := svc.EditOriginal(context.Background(), "app", "expired-token", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestRegisterCommand_Success(t *testing.T) {
	var gotAuth, gotPath string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := NewDeliveryService(Config{BaseURL: server.URL, BotToken: "bot-token"})

	err := svc.RegisterCommand(context.Background(), "app123", driven.Command{
		Name:              "watcher",
		Description:       "Summon The Watcher to observe your timeline",
		OptionName:        "query",
		OptionDescription: "What nexus event troubles you?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bot bot-token", gotAuth)
	assert.Equal(t, "/applications/app123/commands", gotPath)
	assert.Equal(t, "watcher", gotPayload["name"])
	assert.EqualValues(t, 1, gotPayload["type"])

	options, ok := gotPayload["options"].([]any)
	require.True(t, ok)
	require.Len(t, options, 1)
	option := options[0].(map[string]any)
	assert.Equal(t, "query", option["name"])
	assert.EqualValues(t, 3, option["type"])
	assert.Equal(t, true, option["required"])
}

func TestRegisterCommand_RequiresBotToken(t *testing.T) {
	svc := NewDeliveryService(Config{})

	err := svc.RegisterCommand(context.Background(), "app", driven.Command{Name: "watcher"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token")
}

func TestRegisterCommand_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewDeliveryService(Config{BaseURL: server.URL, BotToken: "bad"})

	err := svc.RegisterCommand(context.Background(), "app", driven.Command{Name: "watcher"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
