package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pttcrawl/internal/model"
)

// MarkdownWriter outputs a Markdown report with an optional run summary,
// a sentiment chart and one table row per article.
type MarkdownWriter struct {
	baseWriter
	opts writerOptions
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...WriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(&w.opts)
	}
	return w
}

// WriteRecords writes the report.
func (w *MarkdownWriter) WriteRecords(records []model.Record) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, records)
	w.writeStats(md)
	w.writeSentiment(md, records)
	w.writeArticles(md, records)
	w.writeFooter(md)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, records []model.Record) {
	board := ""
	if w.opts.stats != nil {
		board = w.opts.stats.Board
	} else if len(records) > 0 {
		board = records[0].Board
	}

	if board == "" {
		md.H1("PTT Crawl Report")
	} else {
		md.H1("PTT Crawl Report: " + board)
	}
	md.PlainText("")
}

// writeStats writes the run summary table when statistics were attached.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown) {
	s := w.opts.stats
	if s == nil {
		return
	}

	md.H2("Run Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + s.RunID + "`"},
			{"Status", s.State},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Start Page", strconv.Itoa(s.StartIndex)},
			{"Pages Crawled", strconv.Itoa(s.Pages)},
			{"Page Errors", strconv.Itoa(s.PageErrors)},
			{"Article Errors", strconv.Itoa(s.ArticleErrors)},
			{"Duplicates Removed", strconv.Itoa(s.Duplicates)},
			{"Records", strconv.Itoa(s.Records)},
			{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if s.PageErrors > 0 || s.ArticleErrors > 0 {
		md.Warningf("%d page(s) and %d article(s) failed. See page_errors.log for details.",
			s.PageErrors, s.ArticleErrors)
		md.PlainText("")
	}
}

// writeSentiment writes the comment totals and a mermaid pie chart.
func (w *MarkdownWriter) writeSentiment(md *markdown.Markdown, records []model.Record) {
	var like, boo, neutral int
	for _, r := range records {
		like += r.Like
		boo += r.Boo
		neutral += r.Neutral
	}

	md.H2("Comment Sentiment")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows: [][]string{
			{model.LikeMarker + " like", strconv.Itoa(like)},
			{model.BooMarker + " boo", strconv.Itoa(boo)},
			{"neutral", strconv.Itoa(neutral)},
			{"**Total**", "**" + strconv.Itoa(like+boo+neutral) + "**"},
		},
	})
	md.PlainText("")

	if like+boo+neutral == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Comment Sentiment"),
		piechart.WithShowData(true),
	)
	if like > 0 {
		chart.LabelAndIntValue("like", uint64(like))
	}
	if boo > 0 {
		chart.LabelAndIntValue("boo", uint64(boo))
	}
	if neutral > 0 {
		chart.LabelAndIntValue("neutral", uint64(neutral))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeArticles(md *markdown.Markdown, records []model.Record) {
	md.H2("Articles")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No articles were collected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ContentID,
			tableCell(r.Category, 20),
			tableCell(r.Title, 60),
			tableCell(r.Author, 30),
			r.Date,
			strconv.Itoa(r.TotalComments),
			strconv.Itoa(r.Score),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Category", "Title", "Author", "Date", "Comments", "Score"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [pttcrawl](https://github.com/nao1215/pttcrawl)*")
}

// tableCell makes s safe for a single Markdown table cell and truncates it
// to maxRunes runes. Empty values become "-".
func tableCell(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(truncateString(s, maxRunes), "|", `\|`)
}

// truncateString truncates a string to maxRunes runes with an ellipsis.
func truncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
