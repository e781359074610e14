// Package server defines the JSON wire protocol exchanged with chat clients:
// typed envelopes distinguished by a "header" field, plus the codec helpers
// used by the hub and client logic.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Headers of the envelopes exchanged with clients. Clients send user-login
// and user-message; the server replies with the rest.
const (
	HeaderUserLogin    = "user-login"
	HeaderUserMessage  = "user-message"
	HeaderUpdateData   = "update-data"
	HeaderUserJoined   = "user-joined"
	HeaderUsernameBusy = "username-busy"
	HeaderUserLeft     = "user-left"
	HeaderNewMessage   = "new-message"
)

// ErrMalformedPayload is returned when an inbound frame is not a valid
// protocol envelope. Such frames are logged and dropped without closing
// the connection.
var ErrMalformedPayload = errors.New("malformed payload")

// ClientEvent is a decoded inbound frame. Username carries the login name
// for user-login and the asserted sender for user-message; Text is only set
// for user-message.
type ClientEvent struct {
	Header   string `json:"header"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// DecodeClientEvent parses an inbound frame into a ClientEvent. It wraps
// structural failures in ErrMalformedPayload; field contents beyond the
// header are not validated here.
func DecodeClientEvent(payload []byte) (ClientEvent, error) {
	var event ClientEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ClientEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if event.Header == "" {
		return ClientEvent{}, fmt.Errorf("%w: missing header field", ErrMalformedPayload)
	}
	return event, nil
}

// ChatMessage is the new-message envelope, both as broadcast to clients and
// as stored in the history for replay.
type ChatMessage struct {
	Header   string `json:"header"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Date     string `json:"date"`
}

// UpdateData is sent to a client once its login succeeds. Users lists every
// claimed name in claim order, including the new joiner; Messages is the
// full history at that instant.
type UpdateData struct {
	Header   string        `json:"header"`
	Username string        `json:"username"`
	Users    []string      `json:"users"`
	Messages []ChatMessage `json:"messages"`
}

// UserEvent is the user-joined / user-left notification envelope.
type UserEvent struct {
	Header   string `json:"header"`
	Username string `json:"username"`
}

// BusyReply is sent to a client whose login named an already-claimed username.
type BusyReply struct {
	Header string `json:"header"`
}

// EncodeUpdateData builds the update-data payload for a freshly logged-in
// client. Nil slices are normalized so the JSON always carries arrays.
func EncodeUpdateData(username string, users []string, messages []ChatMessage) ([]byte, error) {
	if users == nil {
		users = []string{}
	}
	if messages == nil {
		messages = []ChatMessage{}
	}
	return json.Marshal(UpdateData{
		Header:   HeaderUpdateData,
		Username: username,
		Users:    users,
		Messages: messages,
	})
}

// EncodeUserJoined builds the user-joined payload.
func EncodeUserJoined(username string) ([]byte, error) {
	return json.Marshal(UserEvent{Header: HeaderUserJoined, Username: username})
}

// EncodeUserLeft builds the user-left payload.
func EncodeUserLeft(username string) ([]byte, error) {
	return json.Marshal(UserEvent{Header: HeaderUserLeft, Username: username})
}

// EncodeUsernameBusy builds the username-busy payload.
func EncodeUsernameBusy() ([]byte, error) {
	return json.Marshal(BusyReply{Header: HeaderUsernameBusy})
}

// EncodeChatMessage builds the new-message payload broadcast to every client.
func EncodeChatMessage(message ChatMessage) ([]byte, error) {
	return json.Marshal(message)
}
