// Package server implements the core of the chat relay: the wire protocol
// codec, the username registry, the message history, and the hub that fans
// chat events out to connected WebSocket clients.
//
// The implementation is organized into specialized files for the protocol,
// registry, history, hub, clients, configuration, routing, and HTTP handlers
// to keep the codebase maintainable and testable as the project grows.
package server
