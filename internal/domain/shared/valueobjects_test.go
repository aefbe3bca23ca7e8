package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    Username
		wantErr error
	}{
		{in: "alice", want: "alice"},
		{in: "  bob.smith_1 ", want: "bob.smith_1"},
		{in: "", wantErr: ErrEmptyValue},
		{in: "ab", wantErr: ErrInvalidFormat},
		{in: "with space", wantErr: ErrInvalidFormat},
		{in: "../etc", wantErr: ErrInvalidFormat},
		{in: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewUsername(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestXP_Level(t *testing.T) {
	tests := []struct {
		xp   XP
		want Level
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{600, 4},
		{1000, 5},
		{4500, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.xp.Level(), "xp=%d", tt.xp)
	}
}

func TestXP_LevelIsMonotonic(t *testing.T) {
	prev := XP(0).Level()
	for x := XP(1); x < 20000; x += 7 {
		l := x.Level()
		assert.GreaterOrEqual(t, l, prev)
		prev = l
	}
}

func TestXP_Progress(t *testing.T) {
	assert.Equal(t, 0, XP(0).ProgressToNextLevel())
	assert.Equal(t, 50, XP(50).ProgressToNextLevel())
	assert.Equal(t, 50, XP(200).ProgressToNextLevel())
}

func TestXP_AddFloorsAtZero(t *testing.T) {
	assert.Equal(t, XP(150), XP(100).Add(50))
	assert.Equal(t, MinXP, XP(10).Subtract(50))
}

func TestLevel_RequiredXP(t *testing.T) {
	assert.Equal(t, 0, Level(1).RequiredXP())
	assert.Equal(t, 100, Level(2).RequiredXP())
	assert.Equal(t, 300, Level(3).RequiredXP())
	assert.Equal(t, 600, Level(4).RequiredXP())
	assert.Equal(t, "Beginner", Level(1).Title())
	assert.Equal(t, "Master", Level(30).Title())
}

func TestConfidence(t *testing.T) {
	c := Confidence(3)
	assert.True(t, c.IsValid())
	assert.Equal(t, "★★★☆☆", c.Stars())
	assert.Equal(t, "3/5", c.String())

	assert.False(t, Confidence(0).IsValid())
	assert.False(t, Confidence(6).IsValid())
}

func TestMinutes(t *testing.T) {
	assert.True(t, Minutes(1).IsValid())
	assert.True(t, Minutes(1440).IsValid())
	assert.False(t, Minutes(0).IsValid())
	assert.False(t, Minutes(1441).IsValid())
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	r := DateRange{Start: start, End: end}
	assert.Equal(t, 7, r.Days())
	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(end))
	assert.False(t, r.Contains(end.AddDate(0, 0, 1)))
	assert.Equal(t, "2024-03-01..2024-03-07", r.String())

	assert.False(t, DateRange{Start: end, End: start}.IsValid())
	assert.Zero(t, DateRange{Start: end, End: start}.Days())

	last := LastNDays(end, 7)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), last.Start)
}
