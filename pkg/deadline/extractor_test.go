package deadline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-admission-watch/pkg/types"
)

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []types.DeadlineMention
	}{
		{
			name: "last_date_with_numeric_date",
			text: "The last date for submission is 15/08/2025 for all candidates.",
			expected: []types.DeadlineMention{{
				Keyword: "last date",
				Dates:   []string{"15/08/2025"},
				Context: "The last date for submission is 15/08/2025 for all candidates....",
			}},
		},
		{
			name:     "no_keyword",
			text:     "Admissions open throughout the year.",
			expected: []types.DeadlineMention{},
		},
		{
			name: "two_keywords_in_one_sentence",
			text: "The deadline and last date for submission is 01-09-2025.",
			expected: []types.DeadlineMention{
				{
					Keyword: "last date",
					Dates:   []string{"01-09-2025"},
					Context: "The deadline and last date for submission is 01-09-2025....",
				},
				{
					Keyword: "deadline",
					Dates:   []string{"01-09-2025"},
					Context: "The deadline and last date for submission is 01-09-2025....",
				},
			},
		},
		{
			name: "before_with_month_name",
			text: "Applications close before Aug 20, 2025.",
			expected: []types.DeadlineMention{{
				Keyword: "before",
				Dates:   []string{"Aug 20, 2025"},
				Context: "Applications close before Aug 20, 2025....",
			}},
		},
		{
			name: "non_breaking_space_in_date",
			text: "Last date is 15\u00a0August 2025.",
			expected: []types.DeadlineMention{{
				Keyword: "last date",
				Dates:   []string{"15\u00a0August 2025"},
				Context: "Last date is 15 August 2025....",
			}},
		},
		{
			name: "non_breaking_space_after_period",
			text: "Welcome to campus.\u00a0The deadline is 15/08/2025",
			expected: []types.DeadlineMention{{
				Keyword: "deadline",
				Dates:   []string{"15/08/2025"},
				Context: "The deadline is 15/08/2025...",
			}},
		},
		{
			name:     "keyword_without_date",
			text:     "The deadline will be announced soon.",
			expected: []types.DeadlineMention{},
		},
		{
			name:     "empty_text",
			text:     "",
			expected: []types.DeadlineMention{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extract(tt.text))
		})
	}
}

func TestExtract_OrderIsKeywordThenSentence(t *testing.T) {
	text := "Apply by 01/05/2025. The deadline is 10/05/2025! Final deadline 20/05/2025."
	mentions := Extract(text)

	require.Len(t, mentions, 3)
	assert.Equal(t, "deadline", mentions[0].Keyword)
	assert.Equal(t, []string{"10/05/2025"}, mentions[0].Dates)
	assert.Equal(t, "deadline", mentions[1].Keyword)
	assert.Equal(t, []string{"20/05/2025"}, mentions[1].Dates)
	assert.Equal(t, "apply by", mentions[2].Keyword)
}

func TestExtract_CaseInsensitiveKeyword(t *testing.T) {
	mentions := Extract("LAST DATE: 2025/07/31")
	require.Len(t, mentions, 1)
	assert.Equal(t, "last date", mentions[0].Keyword)
	assert.Equal(t, []string{"2025/07/31"}, mentions[0].Dates)
}

func TestExtract_ContextCollapsesWhitespace(t *testing.T) {
	mentions := Extract("  The\tdeadline\n\n is   01/01/2026  ")
	require.Len(t, mentions, 1)
	assert.Equal(t, "The deadline is 01/01/2026...", mentions[0].Context)
}

func TestExtract_ContextTruncation(t *testing.T) {
	long := "The deadline is 01/01/2026 " + strings.Repeat("ननन ", 100)
	mentions := Extract(long)
	require.Len(t, mentions, 1)

	ctx := mentions[0].Context
	require.True(t, strings.HasSuffix(ctx, ContextSuffix))
	body := strings.TrimSuffix(ctx, ContextSuffix)
	assert.Equal(t, MaxContextLength, utf8.RuneCountInString(body))
	assert.True(t, utf8.ValidString(ctx))
}

func TestExtract_DatesAreVerbatimSubstrings(t *testing.T) {
	text := "Closing date: 5 Sept, 2025. Due date 2025-9-30 and due date again Oct 1 2025."
	for _, m := range Extract(text) {
		for _, d := range m.Dates {
			assert.Contains(t, text, d)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	text := "The last date is 15/08/2025. Apply before Aug 20, 2025! Deadline: 2025-08-30."
	first := Extract(text)
	second := Extract(text)
	assert.Equal(t, first, second)
}

func TestExtract_DuplicationPerKeyword(t *testing.T) {
	text := "Deadline, last date, closing date and due date: 31/12/2025"
	mentions := Extract(text)

	require.Len(t, mentions, 4)
	seen := map[string]bool{}
	for _, m := range mentions {
		assert.Equal(t, mentions[0].Dates, m.Dates)
		assert.Equal(t, mentions[0].Context, m.Context)
		seen[m.Keyword] = true
	}
	assert.Len(t, seen, 4)
}
