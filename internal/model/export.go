package model

import "time"

// ScreenExport is the top-level JSON structure for screening result export.
type ScreenExport struct {
	Role       string         `json:"role"`
	Date       string         `json:"date"`
	NumScreens int            `json:"num_screens"`
	Results    []ScreenResult `json:"results"`
}

// ScreenResult holds one candidate's screening session data for export.
type ScreenResult struct {
	ScreenID    string           `json:"screen_id"`
	Candidate   string           `json:"candidate"`
	RoleHint    string           `json:"role_hint"`
	Status      ScreenStatus     `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Questions   []QuestionRecord `json:"questions"`
	Summary     SessionSummary   `json:"summary"`
}
