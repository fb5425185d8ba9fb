// cmd/server/main.go
package main

import (
	"fmt"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reelroom/reelroom/internal/handlers"
	"github.com/reelroom/reelroom/internal/middleware"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func serve(cfg *Config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	srv := handlers.NewRoomServer()

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.HealthHandler)

	mux.Handle("/rooms", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListRoomsHandler(srv),
	)))

	mux.Handle("/room/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RoomWSHandler(logger, srv),
	)))

	logger.Infof("Running on %s", cfg.addr())
	if err := http.ListenAndServe(cfg.addr(), mux); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
