// Package main is the entry point for the automation engine.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

var (
	// version can be set at build time via -ldflags
	version = "dev"
)

func main() {
	// Missing .env is fine; containers pass real environment variables.
	_ = godotenv.Load()

	command := "both"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "both", "all":
		startBoth()
	case "api":
		runAPIServer()
	case "worker":
		runWorker()
	case "version":
		log.Printf("Automation engine version %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	default:
		log.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// startBoth runs the API server and the continuation worker in one
// process, sharing a single engine and database pool.
func startBoth() {
	log.Printf("Automation Engine v%s - Starting API Server and Worker\n", version)

	app, err := buildApplication(configPath())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	stopServer, err := app.StartAPIServer()
	if err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	stopWorker := app.StartWorker()

	log.Println("Both services started successfully")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	log.Printf("Received signal %v, shutting down...", sig)

	stopWorker()
	stopServer()

	log.Println("All services stopped")
}

// configPath reads the optional config file location.
func configPath() string {
	if path := os.Getenv("AUTOMATION_CONFIG"); path != "" {
		return path
	}
	return ""
}

func printUsage() {
	log.Println("Automation Engine - Multi-command CLI")
	log.Println()
	log.Println("Usage:")
	log.Println("  automation [command]")
	log.Println()
	log.Println("Commands:")
	log.Println("  both       Start the HTTP API server and continuation worker (default)")
	log.Println("  api        Start the HTTP API server only")
	log.Println("  worker     Start the continuation worker only")
	log.Println("  version    Print version information")
	log.Println("  help       Show this help message")
	log.Println()
	log.Println("Environment Variables:")
	log.Println("  AUTOMATION_CONFIG            - Path to YAML config file (optional)")
	log.Println("  AUTOMATION_PORT              - HTTP port (default: 8090)")
	log.Println("  POSTGRES_AUTOMATION_HOST     - PostgreSQL host (default: localhost)")
	log.Println("  POSTGRES_AUTOMATION_PORT     - PostgreSQL port (default: 5432)")
	log.Println("  POSTGRES_AUTOMATION_USER     - PostgreSQL user (default: postgres)")
	log.Println("  POSTGRES_AUTOMATION_PASSWORD - PostgreSQL password")
	log.Println("  POSTGRES_AUTOMATION_DB       - PostgreSQL database (default: automation)")
	log.Println("  REDIS_ADDR                   - Redis address (default: localhost:6379)")
	log.Println("  REDIS_PASSWORD               - Redis password (optional)")
	log.Println("  AUTH_JWT_SECRET              - JWT secret for admin routes (optional)")
	log.Println("  OPENAI_API_KEY               - OpenAI key; template content when unset")
	log.Println("  AUTOMATION_ENABLED_PLATFORMS - Comma-separated platform ids override")
}
