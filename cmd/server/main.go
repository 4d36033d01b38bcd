package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/voxjournal/voxjournal/internal/server"
	"github.com/voxjournal/voxjournal/internal/server/config"
)

func main() {
	ctx := context.Background()

	// Optional .env overlay for local development.
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
