package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// runWorker starts only the continuation worker. Useful for scaling step
// processing independently of the API.
func runWorker() {
	log.Println("Starting Automation Continuation Worker...")

	app, err := buildApplication(configPath())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	stop := app.StartWorker()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	stop()
	log.Println("Worker stopped")
}
