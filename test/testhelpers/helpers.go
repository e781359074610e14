// Package testhelpers provides common utilities for testing the chat relay.
//
// It contains reusable helpers shared across integration tests: creating
// test servers, dialing WebSocket connections, speaking the chat protocol,
// and asserting on received envelopes.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is a loose decoding of any protocol frame, used by tests to
// assert on whatever envelope arrives.
type Envelope struct {
	Header   string     `json:"header"`
	Username string     `json:"username"`
	Text     string     `json:"text"`
	Date     string     `json:"date"`
	Users    []string   `json:"users"`
	Messages []Envelope `json:"messages"`
}

// CreateTestServer creates a test HTTP server with the given handler.
// The returned httptest.Server should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected
// Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket dials the WebSocket endpoint with the given Origin
// header and returns the connection or an error.
func ConnectWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect dials the WebSocket endpoint and fails the test on error.
// The connection is closed automatically at test cleanup.
func MustConnect(t *testing.T, url, origin string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(url, origin)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendLogin sends a user-login frame over the connection.
func SendLogin(t *testing.T, conn *websocket.Conn, username string) {
	t.Helper()

	payload := map[string]string{"header": "user-login", "username": username}
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("Failed to send login frame: %v", err)
	}
}

// SendChatMessage sends a user-message frame over the connection as a text
// frame.
func SendChatMessage(t *testing.T, conn *websocket.Conn, username, text string) {
	t.Helper()

	payload := map[string]string{"header": "user-message", "username": username, "text": text}
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("Failed to send chat frame: %v", err)
	}
}

// ReadEnvelope reads the next frame within the timeout and decodes it.
// It returns the envelope together with the WebSocket message type.
func ReadEnvelope(t *testing.T, conn *websocket.Conn, timeout time.Duration) (Envelope, int) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("Failed to decode frame %q: %v", payload, err)
	}
	return envelope, msgType
}

// ExpectEnvelope reads the next frame and fails the test unless it carries
// the expected header.
func ExpectEnvelope(t *testing.T, conn *websocket.Conn, header string, timeout time.Duration) Envelope {
	t.Helper()

	envelope, _ := ReadEnvelope(t, conn, timeout)
	if envelope.Header != header {
		t.Fatalf("Expected %q envelope, got %q", header, envelope.Header)
	}
	return envelope
}

// ExpectNoEnvelope asserts that no frame arrives within the given window.
// The expired deadline leaves the connection unusable for further reads, so
// this must be the last read performed on it.
func ExpectNoEnvelope(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no frame, got %q", payload)
	}
	if !os.IsTimeout(err) {
		t.Fatalf("Expected read timeout, got %v", err)
	}
}
