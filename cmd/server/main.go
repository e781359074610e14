package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AlexGnutov/ahj-hw8-1-server/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	hub := server.NewHub(cfg)
	go hub.Run()

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
			log.Printf("HTTP shutdown incomplete: %v", err)
		}
	}()

	if err := server.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}

	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Printf("Hub shutdown incomplete: %v", err)
	}

	log.Println("Server stopped")
}
