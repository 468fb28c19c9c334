package main

import (
	"errors"
	"net/http"

	"github.com/moneypulse/moneypulse-go/analytics/insight"
)

// writeInsightError maps insight failures to HTTP responses
func writeInsightError(w http.ResponseWriter, err error) {
	var missing *insight.ErrMissingColumns
	if errors.As(err, &missing) {
		writeBadRequestResponse(w, err.Error())
		return
	}
	writeInternalServerErrorResponse(w, "Failed to compute insights")
}

// handleClusterUsers segments the uploaded users into three clusters
func (s *Server) handleClusterUsers(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	records, err := insight.ClusterUsers(ds)
	if err != nil {
		writeInsightError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, records)
}

// handlePredictConversion scores each row's conversion likelihood
func (s *Server) handlePredictConversion(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	predictions, err := insight.PredictConversion(ds)
	if err != nil {
		writeInsightError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"predictions": predictions,
	})
}

// handleRecommendProducts returns the three most similar rows per row
// by product interest
func (s *Server) handleRecommendProducts(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	recommendations, err := insight.RecommendProducts(ds)
	if err != nil {
		writeInsightError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"recommendations": recommendations,
	})
}
