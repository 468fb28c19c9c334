package main

import (
	"context"
	"log"

	"github.com/gorilla/mux"

	"github.com/moneypulse/moneypulse-go/ai"
	"github.com/moneypulse/moneypulse-go/analytics/dataset"
	"github.com/moneypulse/moneypulse-go/analytics/report"
	"github.com/moneypulse/moneypulse-go/analytics/sales"
	"github.com/moneypulse/moneypulse-go/utils"
)

// Server represents the MoneyPulse server
type Server struct {
	router      *mux.Router
	config      *utils.Config
	auth        *utils.AuthManager
	store       utils.DocumentStore
	datasets    *dataset.Store
	reports     *report.Generator
	sales       *sales.Analyzer
	llm         ai.LLMClient
	maintenance *utils.MaintenanceService
	unsubscribe func()
}

// NewServer creates a new MoneyPulse server. llm may be nil when no
// chatbot API key is configured; the chatbot endpoint then reports
// failure in its reply instead of calling out.
func NewServer(config *utils.Config, store utils.DocumentStore, llm ai.LLMClient) *Server {
	auth := utils.NewAuthManager(store, config.Security.JWTSecret, config.TokenExpiry(), config.Security.RateLimit)
	auth.SetMailer(utils.GetEmailSender())

	var model *report.PredictionModel
	if config.Storage.ModelPath != "" {
		loaded, err := report.LoadPredictionModel(config.Storage.ModelPath)
		if err != nil {
			utils.GetLogger().Warn("Prediction model not loaded; reports will carry no prediction",
				utils.Error(err), utils.Component("server"))
		} else {
			model = loaded
		}
	}

	s := &Server{
		router:      mux.NewRouter(),
		config:      config,
		auth:        auth,
		store:       store,
		datasets:    dataset.NewStore(),
		reports:     report.NewGenerator(model),
		sales:       sales.NewAnalyzer(),
		llm:         llm,
		maintenance: utils.NewMaintenanceService(auth, store, config.Retention),
	}

	s.setupRoutes()

	// Uploaded datasets are scoped to the session that produced them
	s.unsubscribe = s.Sessions().Subscribe(func(ev utils.SessionEvent) {
		if !ev.SignedIn {
			s.datasets.Clear(ev.Session.UserID)
		}
	})

	if err := s.maintenance.Start(); err != nil {
		utils.GetLogger().Error("Failed to start maintenance scheduler", err, utils.Component("server"))
	}

	return s
}

// Sessions exposes the session provider backing the server
func (s *Server) Sessions() utils.SessionProvider {
	return s.auth
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Initiating graceful shutdown...")

	shutdownComplete := make(chan struct{})

	go func() {
		defer close(shutdownComplete)

		if s.unsubscribe != nil {
			s.unsubscribe()
		}

		if s.maintenance != nil {
			s.maintenance.Stop()
		}

		if s.store != nil {
			log.Println("Closing document store...")
			if err := s.store.Close(); err != nil {
				log.Printf("Error closing document store: %v", err)
			}
		}

		log.Println("Graceful shutdown completed")
	}()

	select {
	case <-shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
