// Package web provides HTTP request and response types for the conversion API.
package web

import "github.com/dukex/journeyc/pkg/models"

// ConvertRequest represents the request body for converting a workflow into a
// journey definition.
type ConvertRequest struct {
	Workflow          *models.Workflow           `json:"workflow"                     validate:"required"`
	ToolCompatibility []models.ToolCompatibility `json:"tool_compatibility,omitempty"`
}

// AnalyzeRequest represents the request body for analyzing a workflow without
// converting it.
type AnalyzeRequest struct {
	Workflow          *models.Workflow           `json:"workflow"                     validate:"required"`
	ToolCompatibility []models.ToolCompatibility `json:"tool_compatibility,omitempty"`
}

// ConvertResponse wraps a compiled journey definition.
type ConvertResponse struct {
	Journey *models.JourneyDefinition `json:"journey"`
}

// AnalyzeResponse wraps a workflow analysis result.
type AnalyzeResponse struct {
	Analysis *models.WorkflowAnalysisResult `json:"analysis"`
}
