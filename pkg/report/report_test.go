package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-admission-watch/pkg/types"
)

func sampleResults() []types.CrawlResult {
	return []types.CrawlResult{
		{
			Target: types.Target{Name: "IISc Bangalore", URL: "https://iisc.ac.in/admissions/"},
			Status: types.StatusOK(),
			DeadlineMentions: []types.DeadlineMention{
				{Keyword: "last date", Dates: []string{"15/08/2025"}, Context: "The last date is 15/08/2025..."},
				{Keyword: "deadline", Dates: []string{"15/08/2025", "Aug 20, 2025"}, Context: "Deadline 15/08/2025 or Aug 20, 2025..."},
			},
			SpecificField: "Last date: 15/08/2025",
			Timestamp:     "2025-08-01 09:30:00",
		},
		{
			Target:           types.Target{Name: "PES University", URL: "https://pes.edu/phd/"},
			Status:           types.StatusError("context deadline exceeded"),
			DeadlineMentions: []types.DeadlineMention{},
			Timestamp:        "2025-08-01 09:30:01",
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleResults())
	require.Len(t, rows, 3)

	assert.Equal(t, Row{
		University:      "IISc Bangalore",
		URL:             "https://iisc.ac.in/admissions/",
		Status:          "Successfully crawled",
		LastUpdated:     "2025-08-01 09:30:00",
		DeadlineKeyword: "deadline",
		FoundDates:      "15/08/2025, Aug 20, 2025",
		Context:         "Deadline 15/08/2025 or Aug 20, 2025...",
	}, rows[1])

	assert.Equal(t, Row{
		University:      "PES University",
		URL:             "https://pes.edu/phd/",
		Status:          "Error: context deadline exceeded",
		LastUpdated:     "2025-08-01 09:30:01",
		DeadlineKeyword: "None",
		FoundDates:      "None",
		Context:         "No deadline information found",
	}, rows[2])
}

func TestViewsAreIdempotent(t *testing.T) {
	results := sampleResults()
	assert.Equal(t, Rows(results), Rows(results))
	assert.Equal(t, Markdown(results), Markdown(results))
	assert.Equal(t, sampleResults(), results, "ビューの計算で入力が変わらない")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "last date", records[1][4])
	assert.Equal(t, "15/08/2025, Aug 20, 2025", records[2][5])
	assert.Equal(t, "No deadline information found", records[3][6])
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()

	t.Run("結果が空なら何もしない", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		require.NoError(t, SaveCSV(path, nil))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("ファイルに保存", func(t *testing.T) {
		path := filepath.Join(dir, "out.csv")
		require.NoError(t, SaveCSV(path, sampleResults()))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), strings.Join(Columns, ",")+"\n"))
	})
}

// failingCloser は書き込みは成功し、Close だけが失敗する WriteCloser です。
type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestWriteAndClose_CloseErrorIsReturned(t *testing.T) {
	wc := &failingCloser{}
	err := writeAndClose(wc, "out.csv", sampleResults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSVファイルのクローズに失敗しました (out.csv)")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, wc.closed)
	assert.NotZero(t, wc.Len())
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResults())

	assert.True(t, strings.HasPrefix(md, "## PhD Admission Deadlines for IISc Bangalore\n\n**URL:** https://iisc.ac.in/admissions/ \n\n"))
	assert.Contains(t, md, "- **Dates:** 15/08/2025, Aug 20, 2025\n\n")
	assert.Contains(t, md, "🎯 **Specific Info:** Last date: 15/08/2025\n\n---\n## PhD Admission Deadlines for PES University")
	assert.Contains(t, md, "**Status:** Error: context deadline exceeded\n\n")
	assert.Contains(t, md, "❌ No specific deadline information found \n\n")
	assert.True(t, strings.HasSuffix(md, "\n\n---"))
	assert.Equal(t, 2, strings.Count(md, "## PhD Admission Deadlines for "))
	assert.Equal(t, "", Markdown(nil))
}

func TestRenderConsole(t *testing.T) {
	var buf bytes.Buffer
	RenderConsole(&buf, sampleResults())
	out := buf.String()

	assert.Contains(t, out, "IISc Bangalore")
	assert.Contains(t, out, "Successfully crawled")
	assert.Contains(t, out, "• Dates: 15/08/2025, Aug 20, 2025")
	assert.Contains(t, out, "🎯 Specific Info: Last date: 15/08/2025")
	assert.Contains(t, out, "❌ No specific deadline information found")
}
