package store

import (
	"fmt"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/session"
)

// ExportAllScreens builds export-ready results from all screening sessions,
// recomputing each summary from the persisted answers.
func (s *Store) ExportAllScreens() ([]model.ScreenResult, error) {
	screens, err := s.ListScreens()
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}

	var results []model.ScreenResult
	for _, sc := range screens {
		questions, err := s.GetScreenQuestions(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("get questions for screen %d: %w", sc.ID, err)
		}
		answers, err := s.GetScreenAnswers(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("get answers for screen %d: %w", sc.ID, err)
		}

		results = append(results, model.ScreenResult{
			ScreenID:    sc.PublicID,
			Candidate:   sc.Candidate,
			RoleHint:    sc.RoleHint,
			Status:      sc.Status,
			StartedAt:   sc.StartedAt,
			CompletedAt: sc.CompletedAt,
			Questions:   questions,
			Summary:     session.Summarize(answers),
		})
	}

	return results, nil
}
