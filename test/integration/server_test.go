// Package integration contains tests for the HTTP surface of the chat
// relay: health check, test page, and WebSocket endpoint checks.
package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/AlexGnutov/ahj-hw8-1-server/test/testhelpers"
)

func TestHealthEndpoint(t *testing.T) {
	_, testServer, _ := startChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/plain")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if string(body) != "Chat server is running!" {
		t.Errorf("Unexpected health body: %q", body)
	}
}

func TestTestPageEndpoint(t *testing.T) {
	_, testServer, _ := startChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/test")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/html")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "user-login") {
		t.Error("Test page does not speak the chat protocol")
	}
}

func TestWebSocketEndpointRejectsNonGet(t *testing.T) {
	_, testServer, _ := startChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, testServer.URL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
}

func TestWebSocketEndpointRequiresUpgrade(t *testing.T) {
	_, testServer, _ := startChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		t.Error("Expected plain GET without upgrade headers to fail")
	}
}
