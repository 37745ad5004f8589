package model

import (
	"context"
	"strings"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleRecruiter is a recruiter user role.
	UserRoleRecruiter UserRole = "recruiter"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// NormalizeDifficulty maps free-form difficulty text onto the known levels.
// Anything unrecognized (including empty) becomes DifficultyUnknown.
func NormalizeDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyUnknown
	}
}

// QuestionRecord is one generated interview question with its reference answer.
// Records are immutable once placed into a screening session.
type QuestionRecord struct {
	Question    string     `json:"question"`
	Difficulty  Difficulty `json:"difficulty"`
	Rationale   string     `json:"rationale,omitempty"`
	IdealAnswer string     `json:"ideal_answer"`
	Tags        []string   `json:"tags"`
}

// RubricDetails holds the per-criterion grading of one answer.
// Each criterion is scored 0-5.
type RubricDetails struct {
	Coverage    int    `json:"coverage"`
	Correctness int    `json:"correctness"`
	Clarity     int    `json:"clarity"`
	Feedback    string `json:"feedback"`
	Followup    string `json:"followup"`
}

// AnswerResult is the scored outcome of one answered question.
type AnswerResult struct {
	Question        string        `json:"question"`
	Difficulty      Difficulty    `json:"difficulty"`
	IdealAnswer     string        `json:"ideal_answer"`
	CandidateAnswer string        `json:"candidate_answer"`
	Score           float64       `json:"score"`
	SemScore        float64       `json:"sem_score"`
	RubricScore     float64       `json:"rubric_score"`
	RubricDetails   RubricDetails `json:"rubric_details"`
}

// SessionSummary aggregates the results of a screening session.
// It is derived on demand and never stored.
type SessionSummary struct {
	Overall      float64                `json:"overall"`
	ByDifficulty map[Difficulty]float64 `json:"by_difficulty"`
	Items        []AnswerResult         `json:"items"`
}

// ScreenStatus represents the status of a screening session.
type ScreenStatus string

const (
	ScreenInProgress ScreenStatus = "in_progress"
	ScreenCompleted  ScreenStatus = "completed"
)

// Screen is a persisted screening session for one candidate.
type Screen struct {
	ID           int64        `json:"-"`
	PublicID     string       `json:"screen_id"`
	Candidate    string       `json:"candidate"`
	RoleHint     string       `json:"role_hint"`
	Status       ScreenStatus `json:"status"`
	NumQuestions int          `json:"num_questions"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// Ticket is one embedded chunk of a past support ticket used for retrieval.
type Ticket struct {
	ID        int64
	Chunk     string
	Source    string
	Embedding []float32
}

// ScreenConfig holds runtime screening parameters set via CLI flags.
type ScreenConfig struct {
	RetrievalK        int  // snippets fetched per generated battery
	FeedbackThreshold int  // rubric total below which a follow-up is requested
	SecureCookies     bool // Set Secure flag on cookies (disable for local dev)
}
