package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elevate-hub/elevate/internal/domain/study"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		sessions []study.Session
		want     []string
	}{
		{
			name: "empty",
			want: []string{RecStartLogging},
		},
		{
			name: "excellent habits",
			sessions: []study.Session{
				sess(-3, "Math", "A", 60, 4),
				sess(-2, "Bio", "B", 60, 4),
				sess(-1, "Math", "C", 60, 5),
				sess(0, "Bio", "D", 60, 3),
				sess(0, "Art", "E", 60, 4),
			},
			want: []string{RecExcellent},
		},
		{
			name: "inconsistent and short",
			sessions: []study.Session{
				sess(-10, "Math", "A", 10, 4),
				sess(0, "Bio", "B", 10, 4),
			},
			want: []string{RecConsistency, RecLongerSession, RecMoreTime},
		},
		{
			name: "long sessions single subject",
			sessions: []study.Session{
				sess(-1, "Math", "A", 120, 4),
				sess(0, "Math", "B", 200, 4),
			},
			want: []string{RecBreakSessions, RecDiversify},
		},
		{
			name: "weak subjects listed alphabetically and capped at three",
			sessions: []study.Session{
				sess(0, "Zoo", "A", 80, 1),
				sess(0, "Math", "A", 80, 2),
				sess(0, "Bio", "A", 80, 1),
				sess(0, "Art", "A", 80, 2),
			},
			want: []string{"Focus extra attention on: Art, Bio, Math. Consider seeking additional resources or help."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.sessions, 6))
		})
	}
}

func TestRecommend_AllTriggersRespectCap(t *testing.T) {
	sessions := []study.Session{
		sess(-20, "Math", "A", 5, 1),
		sess(0, "Math", "B", 5, 1),
	}

	recs := Recommend(sessions, 6)
	assert.Len(t, recs, 5)
	assert.Equal(t, RecConsistency, recs[0])

	assert.Len(t, Recommend(sessions, 2), 2)
}

func TestRecommend_CountIsAlwaysBetweenOneAndSix(t *testing.T) {
	for n := 0; n < 40; n++ {
		var sessions []study.Session
		for i := 0; i < n; i++ {
			sessions = append(sessions, sess(-(i*3)%17, fmt.Sprintf("S%d", i%4), "C", 5+(i*37)%200, 1+i%5))
		}
		recs := Recommend(sessions, 0)
		assert.GreaterOrEqual(t, len(recs), 1)
		assert.LessOrEqual(t, len(recs), 6)
	}
}
