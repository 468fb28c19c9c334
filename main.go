// Entry point for the MoneyPulse analytics server
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/moneypulse/moneypulse-go/ai"
	"github.com/moneypulse/moneypulse-go/utils"
)

const moneypulseVersion = "v1.0.0"

func main() {
	args := os.Args[1:]

	configPath := "config.yaml"
	port := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help", "help":
			printHelp()
			return
		case "--version", "-v":
			fmt.Println("MoneyPulse version:", moneypulseVersion)
			return
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --config requires a file path")
				os.Exit(1)
			}
			i++
			configPath = args[i]
		case "--port":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --port requires a port number")
				os.Exit(1)
			}
			i++
			port = args[i]
		default:
			fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
			os.Exit(1)
		}
	}

	runServer(configPath, port)
}

func runServer(configPath, port string) {
	cm := utils.GetConfigManager()
	if _, err := os.Stat(configPath); err == nil {
		if err := cm.LoadFromFile(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", configPath, err)
			os.Exit(1)
		}
	}
	cm.ApplyEnvironment()
	config := cm.GetConfig()

	if err := utils.InitLogger(config.Logging); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}

	if port == "" {
		port = strconv.Itoa(config.Server.Port)
	}

	store, err := utils.NewSQLiteDocumentStore(config.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening document store: %v\n", err)
		os.Exit(1)
	}

	var llm ai.LLMClient
	client, err := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:  config.Chatbot.APIKey,
		BaseURL: config.Chatbot.BaseURL,
		Timeout: time.Duration(config.Chatbot.Timeout) * time.Second,
	})
	if err != nil {
		utils.GetLogger().Warn("Chatbot disabled", utils.Error(err), utils.Component("server"))
	} else {
		llm = client
	}

	server := NewServer(config, store, llm)

	c := cors.New(cors.Options{
		AllowedOrigins:   config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(server.router),
		ReadTimeout:  time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s", config.Branding.AppName, port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  --config <path>   Configuration file (default: config.yaml)")
	fmt.Println("  --port <port>     Override the configured listen port")
	fmt.Println("  -h, --help, help  Show this help message")
	fmt.Println("  -v, --version     Show MoneyPulse version")
}
