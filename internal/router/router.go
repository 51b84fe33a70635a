package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/handler"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/pkg/constants"
)

// New builds the HTTP router.
func New(
	roomHandler *handler.RoomHandler,
	creditHandler *handler.CreditHandler,
	signalWS *handler.SignalWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	api := r.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("/:roomCode", roomHandler.GetRoom)
			rooms.GET("/:roomCode/validate", roomHandler.ValidateRoom)
		}
		credits := api.Group("/credits")
		{
			credits.GET("/:user_id", creditHandler.GetBalance)
			credits.GET("/:user_id/history", creditHandler.GetHistory)
			credits.GET("/:user_id/stats", creditHandler.GetStats)
			credits.POST("/add", creditHandler.AddCredits)
		}
	}

	// WebSocket: signaling, transcripts and credit metering share one
	// connection per client.
	r.GET(constants.PathWS, signalWS.ServeWS)

	return r
}
