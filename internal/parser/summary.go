package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pttcrawl/internal/model"
)

// Listing entry selectors.
const (
	selectorEntry  = "div.r-ent"
	selectorTitle  = "div.title"
	selectorScore  = "div.nrec"
	selectorDate   = "div.date"
	selectorAuthor = "div.author"
	selectorMark   = "div.mark"
)

// parseSummary builds a Summary from one listing entry block.
//
// An entry whose title has no inner link refers to a deleted article and
// becomes a removed summary carrying the title text as its note.
// A missing sub-field or a link without an href fails with
// *model.InvalidTagError.
func parseSummary(entry *goquery.Selection) (model.Summary, error) {
	title, err := requireOne(entry, selectorTitle)
	if err != nil {
		return model.Summary{}, err
	}

	date, err := requireText(entry, selectorDate)
	if err != nil {
		return model.Summary{}, err
	}
	author, err := requireText(entry, selectorAuthor)
	if err != nil {
		return model.Summary{}, err
	}
	mark, err := requireText(entry, selectorMark)
	if err != nil {
		return model.Summary{}, err
	}

	link := title.Find("a").First()
	if link.Length() == 0 {
		return model.NewRemovedSummary(title.Text(), date, author, mark), nil
	}

	score, err := requireText(entry, selectorScore)
	if err != nil {
		return model.Summary{}, err
	}
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return model.Summary{}, &model.InvalidTagError{Element: selectorTitle + " a[href]"}
	}

	return model.NewAvailableSummary(link.Text(), href, score, date, author, mark), nil
}

// requireOne returns the first match of selector inside s.
func requireOne(s *goquery.Selection, selector string) (*goquery.Selection, error) {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return nil, &model.InvalidTagError{Element: selector}
	}
	return found, nil
}

// requireText returns the trimmed text of the first match of selector.
func requireText(s *goquery.Selection, selector string) (string, error) {
	found, err := requireOne(s, selector)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(found.Text()), nil
}
