package report

import (
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// MinWeaknessSessions is the history size needed for a weakness analysis.
const MinWeaknessSessions = 5

// WeaknessAnalysis lists weak chapters and advice over the whole history.
type WeaknessAnalysis struct {
	SessionCount    int
	Weaknesses      []ChapterScore
	LowSubjects     []string
	Recommendations []string
}

// AnalyzeWeaknesses inspects every session regardless of date.
// Returns shared.ErrInsufficientSessions below MinWeaknessSessions.
func (a *Aggregator) AnalyzeWeaknesses(sessions []study.Session) (*WeaknessAnalysis, error) {
	if len(sessions) < MinWeaknessSessions {
		return nil, shared.ErrInsufficientSessions
	}

	_, weaknesses := a.chapterScores(sessions)
	return &WeaknessAnalysis{
		SessionCount:    len(sessions),
		Weaknesses:      weaknesses,
		LowSubjects:     lowConfidenceSubjects(sessions),
		Recommendations: Recommend(sessions, a.config.MaxRecommendations),
	}, nil
}
