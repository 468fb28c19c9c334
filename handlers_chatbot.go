package main

import (
	"fmt"
	"net/http"

	"github.com/moneypulse/moneypulse-go/ai"
	"github.com/moneypulse/moneypulse-go/utils"
)

// ChatbotRequest is a single chat turn: the user query plus the
// dataset's extended context and known customer segments
type ChatbotRequest struct {
	Query            string   `json:"query"`
	DatasetContext   string   `json:"datasetContext"`
	CustomerSegments []string `json:"customerSegments"`
}

// handleGeminiChatbot answers a chat turn. The endpoint never fails
// outright: errors are reported inside the reply so the chat view stays
// usable.
func (s *Server) handleGeminiChatbot(w http.ResponseWriter, r *http.Request) {
	var req ChatbotRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBadRequestResponse(w, "Invalid request body")
		return
	}

	if s.llm == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"response": "Error: Gemini API key not configured",
		})
		return
	}

	prompt := ai.BuildChatPrompt(req.Query, req.DatasetContext, req.CustomerSegments)

	reply, err := s.llm.Generate(r.Context(), prompt)
	if err != nil {
		utils.GetLogger().Error("Chatbot call failed", err, utils.Component("chatbot"))
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"response": fmt.Sprintf("Error: %v", err),
		})
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"response": reply,
	})
}
