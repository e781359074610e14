// Package integration contains end-to-end tests that exercise the chat
// relay over real WebSocket connections.
package integration

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AlexGnutov/ahj-hw8-1-server/internal/server"
	"github.com/AlexGnutov/ahj-hw8-1-server/test/testhelpers"
)

const testOrigin = "http://chat.test"

// startChatServer spins up a hub and an HTTP test server wired with the
// application routes. It returns the hub, the test server, and the ws://
// URL of the WebSocket endpoint. Everything is torn down at test cleanup.
func startChatServer(t *testing.T, mutate func(*server.Config)) (*server.Hub, *httptest.Server, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = "*"
	if mutate != nil {
		mutate(&cfg)
	}

	hub := server.NewHub(cfg)
	go hub.Run()

	testServer := testhelpers.CreateTestServer(server.SetupRoutes(hub))
	t.Cleanup(func() {
		testServer.Close()
		if err := hub.Shutdown(2 * time.Second); err != nil {
			t.Logf("Hub shutdown incomplete: %v", err)
		}
	})

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
	return hub, testServer, wsURL
}
