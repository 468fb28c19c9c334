package main

import (
	"net/http"

	"github.com/moneypulse/moneypulse-go/utils"
)

// setupRoutes sets up the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)
	s.router.Use(utils.SecurityHeadersMiddleware)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Identity
	s.router.HandleFunc("/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/login", s.handleLogin).Methods("POST")
	s.router.HandleFunc("/reset-password", s.handleSendPasswordReset).Methods("POST")
	s.router.HandleFunc("/reset-password/confirm", s.handleCompletePasswordReset).Methods("POST")

	// Authenticated surface
	authed := s.router.NewRoute().Subrouter()
	authed.Use(s.auth.AuthMiddleware)

	authed.HandleFunc("/logout", s.handleLogout).Methods("POST")
	authed.HandleFunc("/update-email", s.handleUpdateEmail).Methods("POST")
	authed.HandleFunc("/account", s.handleAccount).Methods("GET")
	authed.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	authed.HandleFunc("/profile", s.handleSetProfile).Methods("PUT")

	// Dataset upload and report generation
	authed.HandleFunc("/recommend-business", s.handleRecommendBusiness).Methods("POST")
	authed.HandleFunc("/upload-dataset", s.handleUploadDataset).Methods("POST")
	authed.HandleFunc("/upload-consumer-data", s.handleUploadConsumerData).Methods("POST")
	authed.HandleFunc("/download-report-pdf", s.handleDownloadReportPDF).Methods("POST")
	authed.HandleFunc("/generate-overview", s.handleGenerateOverview).Methods("POST")
	authed.HandleFunc("/generate-visualizations", s.handleGenerateVisualizations).Methods("POST")

	// Chatbot
	authed.HandleFunc("/gemini-chatbot", s.handleGeminiChatbot).Methods("POST")

	// Optional analytics modules, enabled per deployment
	if s.config.Features.Clustering {
		authed.HandleFunc("/cluster-users", s.handleClusterUsers).Methods("POST")
		authed.HandleFunc("/predict-conversion", s.handlePredictConversion).Methods("POST")
		authed.HandleFunc("/recommend-products", s.handleRecommendProducts).Methods("POST")
	}
	if s.config.Features.Reviews {
		authed.HandleFunc("/analyze-sentiment", s.handleAnalyzeSentiment).Methods("POST")
		authed.HandleFunc("/predict-rating", s.handlePredictRating).Methods("POST")
	}
	if s.config.Features.Sales {
		authed.HandleFunc("/forecast-sales", s.handleForecastSales).Methods("POST")
		authed.HandleFunc("/detect-anomalies", s.handleDetectAnomalies).Methods("POST")
	}
}

// handleHealth returns server health and the deployment identity
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := s.store.Health(r.Context()); err != nil {
		status = "degraded"
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": status,
		"app":    s.config.Branding.AppName,
		"features": map[string]bool{
			"clustering": s.config.Features.Clustering,
			"reviews":    s.config.Features.Reviews,
			"sales":      s.config.Features.Sales,
		},
	})
}
