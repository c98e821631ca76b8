package course

import (
	"testing"

	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"github.com/stretchr/testify/require"
)

func questionsWithAnswers(answerIdxs ...int) []schemas.StageQuestion {
	qs := make([]schemas.StageQuestion, len(answerIdxs))
	for i, idx := range answerIdxs {
		qs[i] = schemas.StageQuestion{
			Prompt:    "q",
			Choices:   []string{"a", "b", "c", "d"},
			AnswerIdx: idx,
		}
	}
	return qs
}

func TestGradeQuiz(t *testing.T) {
	tests := []struct {
		name        string
		answerIdxs  []int
		answers     []int
		wantPercent int
		wantResults []bool
		wantPass    bool
	}{
		{
			name:        "all correct",
			answerIdxs:  []int{0, 1, 2},
			answers:     []int{0, 1, 2},
			wantPercent: 100,
			wantResults: []bool{true, true, true},
			wantPass:    true,
		},
		{
			name:        "all wrong",
			answerIdxs:  []int{0, 1, 2},
			answers:     []int{3, 3, 3},
			wantPercent: 0,
			wantResults: []bool{false, false, false},
			wantPass:    false,
		},
		{
			name:        "exactly at the pass threshold",
			answerIdxs:  []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			answers:     []int{0, 0, 0, 0, 0, 0, 0, 1, 1, 1},
			wantPercent: 70,
			wantResults: []bool{true, true, true, true, true, true, true, false, false, false},
			wantPass:    true,
		},
		{
			name:        "one below the pass threshold",
			answerIdxs:  []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			answers:     []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1},
			wantPercent: 60,
			wantResults: []bool{true, true, true, true, true, true, false, false, false, false},
			wantPass:    false,
		},
		{
			name:        "truncated percent stays below threshold",
			answerIdxs:  []int{0, 0, 0},
			answers:     []int{0, 0, 1},
			wantPercent: 66,
			wantResults: []bool{true, true, false},
			wantPass:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, results := gradeQuiz(questionsWithAnswers(tt.answerIdxs...), tt.answers)
			require.Equal(t, tt.wantPercent, percent)
			require.Equal(t, tt.wantResults, results)
			require.Equal(t, tt.wantPass, percent >= config.QUIZ_PASS_PERCENT)
		})
	}
}
