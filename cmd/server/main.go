/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load .env (optional) and read configuration
  2. Initialize SQLite store, seed default leave types
  3. Configure router and start the HTTP server
  4. On SIGINT/SIGTERM, drain connections and close the store

CONFIGURATION:
  PORT      HTTP server port (default: 8080)
  DB_PATH   SQLite database path (default: leave.db, ":memory:" works)

  Flags -port and -db override the environment.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gaja-erp/leave-engine/api"
	"github.com/gaja-erp/leave-engine/store/sqlite"
)

func main() {
	// .env is optional; missing file is not an error.
	_ = godotenv.Load()

	port := flag.String("port", getEnv("PORT", "8080"), "HTTP server port")
	dbPath := flag.String("db", getEnv("DB_PATH", "leave.db"), "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := store.SeedDefaults(context.Background()); err != nil {
		log.Printf("Warning: failed to seed leave types: %v", err)
	}

	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
