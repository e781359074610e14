// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler returns the handler that upgrades HTTP requests to
// WebSocket connections and registers the resulting client with the hub.
// The hub launches the client's pump goroutines.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	policy := newOriginPolicy(hub.cfg.Origins())
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat server is running!")
}

// TestPageHandler serves an HTML page for exercising the chat protocol by
// hand: log in with a display name, watch joins and leaves, and exchange
// messages with other connected browsers.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #users { color: #555; margin: 10px 0; }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Chat Test</h1>

    <div>
        <input type="text" id="nameInput" placeholder="Display name...">
        <button id="loginButton" onclick="login()">Log in</button>
    </div>

    <div id="users"></div>
    <div id="messages"></div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <script>
        let ws = null;
        let username = '';
        const messagesDiv = document.getElementById('messages');
        const usersDiv = document.getElementById('users');
        const nameInput = document.getElementById('nameInput');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');

        function addLine(text) {
            const line = document.createElement('div');
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function login() {
            const name = nameInput.value.trim();
            if (!name) return;

            if (!ws) {
                ws = new WebSocket('ws://' + location.host + '/ws');
                ws.onopen = () => ws.send(JSON.stringify({ header: 'user-login', username: name }));
                ws.onmessage = (event) => handleEvent(JSON.parse(event.data));
                ws.onclose = () => addLine('Connection closed');
            } else {
                ws.send(JSON.stringify({ header: 'user-login', username: name }));
            }
        }

        function handleEvent(data) {
            switch (data.header) {
                case 'update-data':
                    username = data.username;
                    usersDiv.textContent = 'Users: ' + data.users.join(', ');
                    data.messages.forEach(m => addLine(m.date + ' ' + m.username + ': ' + m.text));
                    messageInput.disabled = false;
                    sendButton.disabled = false;
                    addLine('Logged in as ' + username);
                    break;
                case 'username-busy':
                    addLine('Name is taken, try another one');
                    break;
                case 'user-joined':
                    addLine(data.username + ' joined');
                    break;
                case 'user-left':
                    addLine(data.username + ' left');
                    break;
                case 'new-message':
                    addLine(data.date + ' ' + data.username + ': ' + data.text);
                    break;
            }
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ header: 'user-message', username: username, text: text }));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', (e) => {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
