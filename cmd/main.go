package main

import (
	"net/http"
	"time"

	"github.com/chiptally/homegame-backend/internal/game"
	"github.com/chiptally/homegame-backend/internal/ledger"
	"github.com/chiptally/homegame-backend/internal/livesync"
	"github.com/chiptally/homegame-backend/internal/pkg/firebase"
	"github.com/chiptally/homegame-backend/internal/pkg/middleware"
	"github.com/chiptally/homegame-backend/internal/pkg/pubsub"
	"github.com/chiptally/homegame-backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	setupViper()
	setupZerolog()

	firebase.InitFirebaseSdk()

	store, bridge, cleanup := setupLedger()
	defer cleanup()

	apiRouter := setupApiRouter(store, bridge)

	port := viper.GetString("PORT")
	server := &http.Server{
		Addr:         port,
		Handler:      apiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// setupLedger wires the store and the change bridge to each other.
// LEDGER_BACKEND=memory runs single-node without postgres or pubsub.
func setupLedger() (ledger.Store, *livesync.Bridge, func()) {
	if viper.GetString("LEDGER_BACKEND") == "memory" {
		store := ledger.NewMemoryStore(nil)
		bridge := livesync.NewBridge(store, nil)
		store.SetNotifier(bridge)
		return store, bridge, func() {}
	}

	pubsub.InitPubSub()
	db := setupDb()
	store := ledger.NewPostgresStore(db, nil)
	bridge := livesync.NewBridge(store, livesync.PubsubPublisher{})
	store.SetNotifier(bridge)
	go pubsub.Subscribe(livesync.NewChangeSubscriptionHandler(bridge))

	return store, bridge, pubsub.CloseClient
}

func setupDb() *gorm.DB {
	dbUrl := viper.GetString("DB_URL")

	db, err := gorm.Open(postgres.Open(dbUrl), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	sqlDb, _ := db.DB()
	sqlDb.SetMaxOpenConns(50)
	sqlDb.SetConnMaxLifetime(time.Minute * 10)

	return db
}

func setupApiRouter(store ledger.Store, bridge *livesync.Bridge) *gin.Engine {
	apiRouter := gin.Default()
	routerGroup := apiRouter.Group("/homegame-api")

	middleware.RegisterGlobalMiddleware(apiRouter)

	game.RegisterRoutes(routerGroup, store)
	ws.RegisterRoutes(routerGroup, bridge)

	return apiRouter
}

func setupViper() {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
}

func setupZerolog() {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
