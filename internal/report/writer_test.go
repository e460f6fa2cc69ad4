package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pttcrawl/internal/model"
)

// sampleRecords returns two records, the first with two comments.
func sampleRecords() []model.Record {
	return []model.Record{
		{
			ContentID:     "M.1700000000.A.001",
			Author:        "tea5566 (喝茶)",
			Board:         "Drink",
			Category:      "心得",
			Title:         "[心得] 手搖飲|推薦",
			Body:          "第一行\n第二行",
			Date:          "Tue Nov 14 22:13:20 2023",
			SourceIP:      "36.224.10.20",
			TotalComments: 2,
			Like:          1,
			Boo:           1,
			Score:         0,
			Comments: []model.CommentEvent{
				{Type: "推", User: "alice", Content: "好喝", IPDatetime: "11/14 22:20"},
				{Type: "噓", User: "bob", Content: "太甜", IPDatetime: "11/14 22:21"},
			},
		},
		{
			ContentID: "M.1700000100.A.002",
			Author:    "milk",
			Board:     "Drink",
			Title:     "Re: [問題] 奶茶",
			SourceIP:  model.UnknownIP,
		},
	}
}

func sampleStats() RunStats {
	return RunStats{
		RunID:         "run-1",
		Board:         "Drink",
		State:         "finished",
		StartIndex:    3900,
		Pages:         3,
		PageErrors:    1,
		ArticleErrors: 2,
		Records:       2,
		Duplicates:    1,
		StartedAt:     time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC),
		Elapsed:       1500 * time.Millisecond,
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: " JSON ", want: FormatJSON},
		{in: "markdown", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "csv", FormatCSV.Extension())
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.Len(t, Formats(), 3)
}

func TestNewRecordWriter_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := NewRecordWriter(Format("xml"), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes BOM, header and rows in column order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewCSVWriter(&buf).WriteRecords(sampleRecords()))

		data := buf.Bytes()
		require.True(t, bytes.HasPrefix(data, utf8BOM))

		rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, model.Columns, rows[0])
		assert.Equal(t, "M.1700000000.A.001", rows[1][0])
		assert.Equal(t, "第一行\n第二行", rows[1][5])
		assert.Equal(t, "2", rows[1][8])

		var comments []model.CommentEvent
		require.NoError(t, json.Unmarshal([]byte(rows[1][13]), &comments))
		require.Len(t, comments, 2)
		assert.Equal(t, "alice", comments[0].User)

		assert.Equal(t, "[]", rows[2][13])
	})

	t.Run("writes only the header for no records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewCSVWriter(&buf).WriteRecords(nil))

		rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes a record array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewJSONWriter(&buf).WriteRecords(sampleRecords()))

		var got []model.Record
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "tea5566 (喝茶)", got[0].Author)
		assert.Len(t, got[0].Comments, 2)
	})

	t.Run("writes an empty array for nil", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewJSONWriter(&buf).WriteRecords(nil))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewJSONWriter(&buf, WithPrettyPrint()).WriteRecords(sampleRecords()))
		assert.Contains(t, buf.String(), "\n  {")
	})

	t.Run("writes run stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewJSONWriter(&buf).WriteStats(sampleStats())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"run_id":"run-1"`)
		assert.Contains(t, buf.String(), `"page_errors":1`)
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary, sentiment and articles", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, WithRunStats(sampleStats()))
		require.NoError(t, w.WriteRecords(sampleRecords()))

		out := buf.String()
		assert.Contains(t, out, "# PTT Crawl Report: Drink")
		assert.Contains(t, out, "## Run Summary")
		assert.Contains(t, out, "run-1")
		assert.Contains(t, out, "## Comment Sentiment")
		assert.Contains(t, out, "pie")
		assert.Contains(t, out, "## Articles")
		assert.Contains(t, out, "M.1700000100.A.002")
		assert.Contains(t, out, "手搖飲")
		assert.Contains(t, out, "page_errors.log")
	})

	t.Run("handles no records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, NewMarkdownWriter(&buf).WriteRecords(nil))

		out := buf.String()
		assert.Contains(t, out, "# PTT Crawl Report")
		assert.Contains(t, out, "No articles were collected.")
		assert.NotContains(t, out, "## Run Summary")
		assert.NotContains(t, out, "mermaid")
	})
}

func TestTableCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty becomes dash", in: "  ", max: 10, want: "-"},
		{name: "newlines collapse", in: "a\nb", max: 10, want: "a b"},
		{name: "pipes escaped", in: "a|b", max: 10, want: `a\|b`},
		{name: "runes truncated", in: "一二三四五六", max: 5, want: "一二..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tableCell(tt.in, tt.max))
		})
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := NewSimpleWriter(&buf).WriteStats(sampleStats(), []string{"out/ptt_Drink_latest.csv"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "PTT crawl summary: Drink")
	assert.Contains(t, out, "Pages succeeded: 2")
	assert.Contains(t, out, "Duplicates:      1")
	assert.Contains(t, out, "Elapsed:         1.5s")
	assert.Contains(t, out, "  - out/ptt_Drink_latest.csv")
}

func TestRunStats_SuccessfulPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, RunStats{Pages: 3, PageErrors: 1}.SuccessfulPages())
	assert.Equal(t, 0, RunStats{Pages: 1, PageErrors: 2}.SuccessfulPages())
}

func TestSaveRecords(t *testing.T) {
	t.Parallel()

	t.Run("writes timestamped and latest files per format", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

		paths, err := SaveRecords(dir, "Drink", ts, sampleRecords(), []Format{FormatCSV, FormatJSON})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "ptt_Drink_20231114_221320.csv"),
			filepath.Join(dir, "ptt_Drink_latest.csv"),
			filepath.Join(dir, "ptt_Drink_20231114_221320.json"),
			filepath.Join(dir, "ptt_Drink_latest.json"),
		}, paths)

		stamped, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		latest, err := os.ReadFile(paths[1])
		require.NoError(t, err)
		assert.Equal(t, stamped, latest)
	})

	t.Run("latest is overwritten by the next run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := SaveRecords(dir, "Drink", time.Unix(0, 0), sampleRecords(), []Format{FormatJSON})
		require.NoError(t, err)
		_, err = SaveRecords(dir, "Drink", time.Unix(60, 0), nil, []Format{FormatJSON})
		require.NoError(t, err)

		latest, err := os.ReadFile(filepath.Join(dir, "ptt_Drink_latest.json"))
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(string(latest)))
	})

	t.Run("rejects empty board", func(t *testing.T) {
		t.Parallel()

		_, err := SaveRecords(t.TempDir(), "", time.Now(), nil, []Format{FormatCSV})
		assert.ErrorIs(t, err, ErrBoardRequired)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		t.Parallel()

		_, err := SaveRecords(t.TempDir(), "Drink", time.Now(), nil, []Format{"xml"})
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}
