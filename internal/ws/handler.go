package ws

import (
	"sync"

	"github.com/chiptally/homegame-backend/internal/livesync"
	"github.com/chiptally/homegame-backend/internal/pkg/middleware"
	"github.com/chiptally/homegame-backend/internal/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type wsHandler struct {
	bridge *livesync.Bridge
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func RegisterRoutes(rg *gin.RouterGroup, bridge *livesync.Bridge) {
	handler := wsHandler{bridge: bridge}

	routes := rg.Group("/ws")
	routes.GET("/games/:id", middleware.VerifyAuthToken, handler.serveGame)
}

// serveGame streams full game snapshots to the connection for as long
// as it stays open: one livesync subscription per connection.
func (wsh *wsHandler) serveGame(c *gin.Context) {
	gameId := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Gorilla connections do not allow concurrent writers.
	var writeMu sync.Mutex
	subscription := wsh.bridge.Subscribe(gameId, func(record *model.GameRecord) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(record); err != nil {
			log.Warn().Err(err).Str("gameId", gameId).Msg("dropping live game delivery")
		}
	})
	defer subscription.Cancel()

	for {
		var buffer any
		if err := conn.ReadJSON(&buffer); err != nil {
			return
		}
	}
}
