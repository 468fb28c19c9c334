package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moneypulse/moneypulse-go/analytics/charts"
	"github.com/moneypulse/moneypulse-go/analytics/dataset"
	"github.com/moneypulse/moneypulse-go/analytics/report"
	"github.com/moneypulse/moneypulse-go/utils"
)

// noDatasetMessage is returned by analysis endpoints called before an
// upload
const noDatasetMessage = "No dataset uploaded. Please upload a dataset first."

// parseUploadedDataset reads the multipart "file" field as a CSV dataset
func (s *Server) parseUploadedDataset(r *http.Request) (*dataset.Dataset, error) {
	if err := r.ParseMultipartForm(s.config.Server.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("failed to parse upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file uploaded")
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return nil, fmt.Errorf("only CSV files are supported")
	}

	return dataset.ParseCSV(file)
}

// acceptUpload parses the upload and replaces the user's current
// dataset, enforcing single-flight per user
func (s *Server) acceptUpload(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, string, bool) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return nil, "", false
	}

	if err := s.datasets.BeginUpload(session.UserID); err != nil {
		writeErrorResponse(w, http.StatusConflict, "An upload is already in progress. Please wait for it to finish.")
		return nil, "", false
	}

	ds, err := s.parseUploadedDataset(r)
	if err != nil {
		s.datasets.AbortUpload(session.UserID)
		writeBadRequestResponse(w, err.Error())
		return nil, "", false
	}

	s.datasets.CompleteUpload(session.UserID, ds)
	utils.GetLogger().Info("Dataset uploaded",
		utils.Int("rows", ds.NumRows()),
		utils.Int("columns", ds.NumColumns()),
		utils.UserID(session.UserID),
		utils.Component("dataset"))

	return ds, session.UserID, true
}

// currentDataset fetches the caller's stored dataset, writing the
// no-dataset error when absent
func (s *Server) currentDataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	session, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	ds, err := s.datasets.Get(session.UserID)
	if err != nil {
		if errors.Is(err, dataset.ErrNoDataset) {
			writeBadRequestResponse(w, noDatasetMessage)
			return nil, false
		}
		writeInternalServerErrorResponse(w, "Failed to load dataset")
		return nil, false
	}
	return ds, true
}

// persistAnalysis stores a generated report under the user's id so the
// retention sweep has something to age out; failures are logged, not
// surfaced
func (s *Server) persistAnalysis(ctx context.Context, collection, userID string, consumerReport *report.ConsumerReport) {
	record := map[string]any{
		"report":       consumerReport,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.SetDocument(ctx, collection, userID, record); err != nil {
		utils.GetLogger().Error("Failed to persist analysis result", err,
			utils.String("collection", collection),
			utils.UserID(userID),
			utils.Component("dataset"))
	}
}

// handleRecommendBusiness uploads a dataset and returns the full
// analysis: insights, consumer report and per-column charts
func (s *Server) handleRecommendBusiness(w http.ResponseWriter, r *http.Request) {
	ds, userID, ok := s.acceptUpload(w, r)
	if !ok {
		return
	}

	consumerReport := s.reports.Generate(ds)
	s.persistAnalysis(r.Context(), utils.CollectionAnalyses, userID, consumerReport)

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "File uploaded and analyzed successfully",
		"insights": map[string]any{
			"total_entries": ds.NumRows(),
			"total_columns": ds.NumColumns(),
		},
		"consumer_report":  consumerReport,
		"charts_by_column": charts.ByColumn(ds),
	})
}

// handleUploadDataset uploads a dataset and returns the overview blob
// plus per-column charts
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.acceptUpload(w, r)
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":          "File uploaded and analyzed successfully",
		"overview":         ds.Describe(),
		"charts_by_column": charts.ByColumn(ds),
	})
}

// handleUploadConsumerData uploads a dataset for the clustering and
// prediction endpoints
func (s *Server) handleUploadConsumerData(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.acceptUpload(w, r)
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":       "File uploaded successfully",
		"total_entries": ds.NumRows(),
		"total_columns": ds.NumColumns(),
	})
}

// handleDownloadReportPDF renders the consumer report for the uploaded
// file as a PDF attachment
func (s *Server) handleDownloadReportPDF(w http.ResponseWriter, r *http.Request) {
	ds, err := s.parseUploadedDataset(r)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	consumerReport := s.reports.Generate(ds)
	if session, ok := utils.GetSessionFromContext(r.Context()); ok {
		s.persistAnalysis(r.Context(), utils.CollectionReports, session.UserID, consumerReport)
	}

	title := s.config.Branding.ReportTitle
	if title == "" {
		title = "Consumer Shopping Behaviour Report"
	}

	pdf, err := report.RenderPDF(consumerReport, title)
	if err != nil {
		utils.GetLogger().Error("Failed to render report PDF", err, utils.Component("report"))
		writeInternalServerErrorResponse(w, "An internal error occurred while generating the PDF.")
		return
	}

	filename := fmt.Sprintf("%s_Report.pdf", consumerReport.CompanyName)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// handleGenerateOverview summarizes the stored dataset
func (s *Server) handleGenerateOverview(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, ds.Describe())
}

// handleGenerateVisualizations returns value-count histograms for
// numeric columns and a scatter of the first two numeric columns
func (s *Server) handleGenerateVisualizations(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.currentDataset(w, r)
	if !ok {
		return
	}

	numeric, _ := ds.IdentifyFeatures()

	histograms := make(map[string]map[string]int)
	for _, col := range numeric {
		counts := make(map[string]int)
		for _, v := range ds.StringValues(col) {
			counts[v]++
		}
		histograms[col] = counts
	}

	scatterPlots := make(map[string]any)
	if len(numeric) >= 2 {
		scatterPlots["scatter_plot"] = map[string]any{
			"x": ds.NumericValues(numeric[0]),
			"y": ds.NumericValues(numeric[1]),
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"histograms":    histograms,
		"scatter_plots": scatterPlots,
	})
}
