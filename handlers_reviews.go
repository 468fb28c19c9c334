package main

import (
	"errors"
	"net/http"

	"github.com/moneypulse/moneypulse-go/analytics/reviews"
)

// writeReviewError maps review-analysis failures to HTTP responses
func writeReviewError(w http.ResponseWriter, err error) {
	var missing *reviews.ErrMissingColumn
	if errors.As(err, &missing) {
		writeBadRequestResponse(w, err.Error())
		return
	}
	writeInternalServerErrorResponse(w, "Failed to analyze reviews")
}

// handleAnalyzeSentiment scores the polarity of each review
func (s *Server) handleAnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	sentiments, err := reviews.AnalyzeSentiment(ds)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"sentiments": sentiments,
	})
}

// handlePredictRating predicts ratings from price and review length
func (s *Server) handlePredictRating(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	predictions, err := reviews.PredictRating(ds)
	if err != nil {
		writeReviewError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"predictions": predictions,
	})
}
