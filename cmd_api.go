package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// runAPIServer starts only the HTTP API. Continuations enqueued by the
// engine wait in the database until a worker process picks them up.
func runAPIServer() {
	log.Println("Starting Automation API Server...")

	app, err := buildApplication(configPath())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	stop, err := app.StartAPIServer()
	if err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stop()
	log.Println("Server stopped")
}
