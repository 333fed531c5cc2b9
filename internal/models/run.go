package models

import "time"

// AnalysisRequest is the input for one analysis run.
type AnalysisRequest struct {
	ClientURL     string   `json:"client_url"`
	CompetitorURL string   `json:"competitor_url"`
	Queries       []string `json:"queries"`
}

// Run is a persisted record of a completed analysis, used to track how
// similarity scores move between runs.
type Run struct {
	ID            string             `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	ClientURL     string             `json:"client_url"`
	CompetitorURL string             `json:"competitor_url"`
	Queries       []string           `json:"queries"`
	Scores        map[string]float64 `json:"scores"`
	Method        string             `json:"method"`
	ReportPath    string             `json:"report_path,omitempty"`
}
