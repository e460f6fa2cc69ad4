package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pttcrawl/internal/fetcher"
	"github.com/nao1215/pttcrawl/internal/model"
)

// notFoundPage is the body fakeFetcher answers unknown addresses with.
const notFoundPage = "<html>404 - Not Found</html>"

// fakeFetcher serves canned markup by address.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]string)}
}

func (f *fakeFetcher) Fetch(_ context.Context, address string) ([]byte, error) {
	f.calls = append(f.calls, address)
	page, ok := f.pages[address]
	if !ok {
		return nil, &model.FetchError{URL: address, Status: http.StatusNotFound, Body: []byte(notFoundPage)}
	}
	return []byte(page), nil
}

type entry struct {
	title   string
	address string
	author  string
}

// listing renders a listing page; entries are given newest first, as the
// site lays them out. prev is the previous page index, 0 for disabled.
func listing(board string, prev int, entries ...entry) string {
	prevLink := `<a class="btn wide disabled">上頁</a>`
	if prev > 0 {
		prevLink = fmt.Sprintf(`<a class="btn wide" href="/bbs/%s/index%d.html">上頁</a>`, board, prev)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div class="action-bar">
<a href="/bbs/%[1]s/index.html">看板</a><a href="/man/%[1]s/index.html">精華區</a>
<a href="/bbs/%[1]s/index1.html">最舊</a>%[2]s<a class="btn wide disabled">下頁</a>
<a href="/bbs/%[1]s/index.html">最新</a></div>`, board, prevLink)

	for _, e := range entries {
		title := e.title
		if e.address != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, e.address, e.title)
		}
		fmt.Fprintf(&b, `<div class="r-ent"><div class="nrec"></div><div class="title">%s</div>
<div class="meta"><div class="author">%s</div><div class="date">1/01</div><div class="mark"></div></div></div>`,
			title, e.author)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// article renders an article page with the given comment tags.
func article(board, title, author string, tags ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div id="main-content">`+
		`<div class="article-metaline"><span class="article-meta-value">%s</span></div>`+
		`<div class="article-metaline-right"><span class="article-meta-value">%s</span></div>`+
		`<div class="article-metaline"><span class="article-meta-value">%s</span></div>`+
		`<div class="article-metaline"><span class="article-meta-value">Mon Jan  1 10:00:00 2024</span></div>`+
		"body of %s\n--\nsig\n"+
		`<span class="f2">※ 發信站: 批踢踢實業坊(ptt.cc), 來自: 1.2.3.4</span>`,
		author, board, title, title)
	for _, tag := range tags {
		fmt.Fprintf(&b, `<div class="push"><span class="push-tag">%s</span><span class="push-userid">u</span>`+
			`<span class="push-content">: c</span><span class="push-ipdatetime">01/01 10:00</span></div>`, tag)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func articleAddress(id string) string {
	return model.ArticleAddress("Drink", id)
}

func TestCrawler_Run_PageFailureIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 3)] = listing("Drink", 2, entry{"page three", articleAddress("M.3"), "a"})
	// page 2 is missing and fails with 404
	f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0, entry{"page one", articleAddress("M.1"), "a"})
	f.pages[articleAddress("M.3")] = article("Drink", "page three", "a")
	f.pages[articleAddress("M.1")] = article("Drink", "page one", "a")

	var recorded []model.CrawlError
	recorder := ErrorRecorderFunc(func(e model.CrawlError) error {
		recorded = append(recorded, e)
		return nil
	})

	c := New(f, WithPacer(NoPacer{}), WithErrorRecorder(recorder))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 3, Pages: 3})
	require.NoError(t, err)

	assert.Equal(t, StateFinished, result.State)
	assert.Equal(t, 3, result.StartIndex)
	assert.Equal(t, 3, result.PagesCrawled)
	assert.Equal(t, 1, result.PageErrors)
	assert.Zero(t, result.ArticleErrors)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "page three", result.Records[0].Title)
	assert.Equal(t, "page one", result.Records[1].Title)

	require.Len(t, recorded, 1)
	assert.Equal(t, model.ScopePage, recorded[0].Scope)
	assert.Equal(t, "2", recorded[0].Ref)
	assert.ErrorIs(t, recorded[0].Err, model.ErrFetchFailed)
	assert.Equal(t, notFoundPage, string(recorded[0].Raw), "the failed response is kept for a snapshot")
	assert.NotEmpty(t, recorded[0].Reason)
	assert.False(t, recorded[0].Timestamp.IsZero())
	assert.Equal(t, recorded, result.Errors)
}

func TestCrawler_Run_RemovedEntriesAndComments(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 5)] = listing("Drink", 4,
		entry{"second", articleAddress("M.2"), "b"},
		entry{"(本文已被刪除) [c]", "", "-"},
		entry{"first", articleAddress("M.1"), "a"},
	)
	f.pages[articleAddress("M.1")] = article("Drink", "first", "a", "推", "噓", "推")
	f.pages[articleAddress("M.2")] = article("Drink", "second", "b")

	c := New(f, WithPacer(NoPacer{}))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 5, Pages: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed)
	assert.Empty(t, result.Errors, "removed entries are not errors")
	require.Len(t, result.Records, 2)

	first := result.Records[0]
	assert.Equal(t, "first", first.Title, "entries are read oldest first")
	assert.Equal(t, "M.1", first.ContentID)
	assert.Equal(t, "1.2.3.4", first.SourceIP)
	assert.Equal(t, 3, first.TotalComments)
	assert.Equal(t, 2, first.Like)
	assert.Equal(t, 1, first.Boo)
	assert.Equal(t, 0, first.Neutral)
	assert.Equal(t, 1, first.Score)

	assert.Equal(t, []string{
		model.ListingAddress("Drink", 5),
		articleAddress("M.1"),
		articleAddress("M.2"),
	}, f.calls, "removed entries are never fetched")
}

func TestCrawler_Run_Dedupe(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 2)] = listing("Drink", 1, entry{"same", articleAddress("M.2"), "a"})
	f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0, entry{"same", articleAddress("M.1"), "a"})
	f.pages[articleAddress("M.2")] = article("Drink", "same", "a")
	f.pages[articleAddress("M.1")] = article("Drink", "same", "a")

	c := New(f, WithPacer(NoPacer{}))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 2, Pages: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "M.2", result.Records[0].ContentID, "first occurrence in merge order is kept")
}

func TestCrawler_Run_ArticleFailureIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 7)] = listing("Drink", 6,
		entry{"ok", articleAddress("M.2"), "a"},
		entry{"broken", articleAddress("M.1"), "a"},
	)
	f.pages[articleAddress("M.1")] = `<html><body>no container</body></html>`
	f.pages[articleAddress("M.2")] = article("Drink", "ok", "a")

	c := New(f, WithPacer(NoPacer{}))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 7, Pages: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ArticleErrors)
	require.Len(t, result.Errors, 1)
	e := result.Errors[0]
	assert.Equal(t, model.ScopeArticle, e.Scope)
	assert.Equal(t, articleAddress("M.1"), e.Ref)
	assert.Equal(t, "broken", e.Title)
	assert.ErrorIs(t, e.Err, model.ErrInvalidTag)
	assert.NotEmpty(t, e.Raw, "markup is kept for snapshots")

	require.Len(t, result.Records, 1)
	assert.Equal(t, "ok", result.Records[0].Title)
}

func TestCrawler_Run_ListingParseFailureKeepsMarkup(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 1)] = `<html><body>maintenance</body></html>`

	c := New(f, WithPacer(NoPacer{}))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 1, Pages: 1})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0].Err, model.ErrNavigationMissing)
	assert.Contains(t, string(result.Errors[0].Raw), "maintenance")
}

func TestCrawler_Run_SummaryFallback(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0,
		entry{"", articleAddress("M.2"), "b"},
		entry{"from listing", articleAddress("M.1"), "a"},
	)
	bare := `<html><body><div id="main-content">text only</div></body></html>`
	f.pages[articleAddress("M.1")] = bare
	f.pages[articleAddress("M.2")] = bare

	c := New(f, WithPacer(NoPacer{}))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 1, Pages: 1})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "from listing", result.Records[0].Title)
	assert.Equal(t, "a", result.Records[0].Author)
	assert.Equal(t, "Drink", result.Records[0].Board)
	assert.Equal(t, 1, result.Dropped, "records without any title are dropped")
}

func TestCrawler_Run_ResolveStart(t *testing.T) {
	t.Parallel()

	t.Run("latest page index", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher()
		f.pages[model.ListingAddress("Drink", 0)] = listing("Drink", 41)
		f.pages[model.ListingAddress("Drink", 42)] = listing("Drink", 41)

		c := New(f, WithPacer(NoPacer{}))
		result, err := c.Run(context.Background(), Request{Board: "Drink", Pages: 1})
		require.NoError(t, err)
		assert.Equal(t, 42, result.StartIndex)
		assert.Zero(t, result.PageErrors)
	})

	t.Run("falls back to page 1", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher()
		f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0)

		c := New(f, WithPacer(NoPacer{}))
		result, err := c.Run(context.Background(), Request{Board: "Drink", Pages: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, result.StartIndex)
		assert.Equal(t, 1, result.PagesCrawled, "the walk stops below page 1")
		assert.Equal(t, StateFinished, result.State)
	})
}

func TestCrawler_Run_All(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 2)] = listing("Drink", 1)
	f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0)

	pages := 0
	pacer := &countingPacer{onPage: func() { pages++ }}

	c := New(f, WithPacer(pacer))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 2, All: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.PagesCrawled)
	assert.Equal(t, StateFinished, result.State)
	assert.Equal(t, 1, pages, "no delay after the last page")
}

func TestCrawler_Run_Cancelled(t *testing.T) {
	t.Parallel()

	t.Run("before the first page", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := New(newFakeFetcher(), WithPacer(NoPacer{}))
		result, err := c.Run(ctx, Request{Board: "Drink", Start: 3, Pages: 3})
		require.NoError(t, err)
		assert.Equal(t, StateAborted, result.State)
		assert.Zero(t, result.PagesCrawled)
		assert.Empty(t, result.Records)
	})

	t.Run("partial results are kept", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher()
		f.pages[model.ListingAddress("Drink", 3)] = listing("Drink", 2,
			entry{"second", articleAddress("M.2"), "a"},
			entry{"first", articleAddress("M.1"), "a"},
		)
		f.pages[articleAddress("M.1")] = article("Drink", "first", "a")
		f.pages[articleAddress("M.2")] = article("Drink", "second", "a")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pacer := &countingPacer{onArticle: cancel}

		c := New(f, WithPacer(pacer))
		result, err := c.Run(ctx, Request{Board: "Drink", Start: 3, Pages: 3})
		require.NoError(t, err)

		assert.Equal(t, StateAborted, result.State)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "first", result.Records[0].Title)
		assert.NotContains(t, f.calls, articleAddress("M.2"))
	})
}

func TestCrawler_Run_InvalidRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "no board", req: Request{Pages: 1}, wantErr: ErrBoardRequired},
		{name: "no pages", req: Request{Board: "Drink"}, wantErr: ErrInvalidPageCount},
		{name: "negative start", req: Request{Board: "Drink", Start: -1, Pages: 1}, wantErr: ErrInvalidStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(newFakeFetcher()).Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCrawler_Run_RecorderErrorDoesNotStopRun(t *testing.T) {
	t.Parallel()

	recorder := ErrorRecorderFunc(func(model.CrawlError) error {
		return errors.New("disk full")
	})

	c := New(newFakeFetcher(), WithPacer(NoPacer{}), WithErrorRecorder(recorder))
	result, err := c.Run(context.Background(), Request{Board: "Drink", Start: 2, Pages: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageErrors)
	assert.Equal(t, StateFinished, result.State)
}

func TestCrawler_Run_KeepsGivenRunID(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.pages[model.ListingAddress("Drink", 1)] = listing("Drink", 0)

	result, err := New(f, WithPacer(NoPacer{})).Run(context.Background(),
		Request{Board: "Drink", Start: 1, Pages: 1, RunID: "run-42"})
	require.NoError(t, err)
	assert.Equal(t, "run-42", result.RunID)
	assert.Empty(t, result.Records)
	assert.Equal(t, StateFinished, result.State)
}

func TestCrawler_Run_WithHTTPFetcher(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/bbs/Drink/index.html":   listing("Drink", 9),
		"/bbs/Drink/index10.html": listing("Drink", 9, entry{"hello", "/bbs/Drink/M.10.html", "a"}),
		"/bbs/Drink/M.10.html":    article("Drink", "hello", "a", "推"),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(fetcher.AgeGateCookieName); err != nil || c.Value != fetcher.AgeGateCookieValue {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	f, err := fetcher.New(fetcher.WithSiteRoot(server.URL))
	require.NoError(t, err)

	result, err := New(f, WithPacer(NoPacer{})).Run(context.Background(), Request{Board: "Drink", Pages: 1})
	require.NoError(t, err)

	assert.Equal(t, 10, result.StartIndex)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "hello", result.Records[0].Title)
	assert.Equal(t, 1, result.Records[0].Like)
	assert.NotEmpty(t, result.RunID)
}

// countingPacer calls hooks instead of waiting.
type countingPacer struct {
	onArticle func()
	onPage    func()
}

func (p *countingPacer) AfterArticle(ctx context.Context) error {
	if p.onArticle != nil {
		p.onArticle()
	}
	return ctx.Err()
}

func (p *countingPacer) AfterPage(ctx context.Context) error {
	if p.onPage != nil {
		p.onPage()
	}
	return ctx.Err()
}
