package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers are served from any origin
	},
}

func WSHandler(hub *Hub) gin.HandlerFunc {
	logger := hub.logger.WithPrefix("ws")
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("upgrade failed", "err", err)
			return
		}

		// written before AddWS so it never races a broadcast
		_ = ws.WriteMessage(
			websocket.TextMessage,
			[]byte(`{"type":"welcome","transport":"websocket"}`+"\n"),
		)
		hub.AddWS(ws)
		logger.Info("client connected", "addr", c.Request.RemoteAddr)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		logger.Info("client disconnected", "addr", c.Request.RemoteAddr)
	}
}
