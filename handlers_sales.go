package main

import (
	"net/http"
)

// handleForecastSales extrapolates the sales series ten steps ahead
func (s *Server) handleForecastSales(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	forecast, err := s.sales.Forecast(ds)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"forecast": forecast,
	})
}

// handleDetectAnomalies flags anomalous sales values
func (s *Server) handleDetectAnomalies(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	anomalies, err := s.sales.DetectAnomalies(ds)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"anomalies": anomalies,
	})
}
