package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the connection, sends the initial snapshots so
// a fresh client starts from the current state, and runs the connection
// as a hub client. On any failure the connection is simply closed; the
// client reconnects and receives fresh snapshots.
func HandleWebSocket(hub *Hub, logger *slog.Logger, initial func() ([]Message, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // served behind the console's own origin or a trusted proxy
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn)

		if initial != nil {
			msgs, err := initial()
			if err != nil {
				logger.Error("initial snapshot", "error", err)
				conn.Close(ws.StatusInternalError, "snapshot failed")
				return
			}
			for _, msg := range msgs {
				data, err := json.Marshal(msg)
				if err != nil {
					logger.Error("marshal snapshot", "error", err)
					conn.Close(ws.StatusInternalError, "snapshot failed")
					return
				}
				client.enqueue(data)
			}
		}

		client.Run(r.Context())
	}
}
