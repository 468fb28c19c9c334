package ai

import (
	"fmt"
	"strings"
)

// BuildChatPrompt assembles the chatbot prompt from the user query, the
// dataset's extended context and the known customer segments
func BuildChatPrompt(query, datasetContext string, customerSegments []string) string {
	segments := "Not provided"
	if len(customerSegments) > 0 {
		segments = strings.Join(customerSegments, ", ")
	}

	return fmt.Sprintf(
		"Based on the detailed dataset information provided below, answer the user query with actionable business recommendations.\n\n"+
			"Dataset Details:\n%s\n\n"+
			"Key Customer Segments: %s\n\n"+
			"User Query: %s\n\n"+
			"Your answer should provide specific, step-by-step recommendations for increasing revenue, expanding operations, launching promotions, and improving sales.",
		datasetContext, segments, query)
}
