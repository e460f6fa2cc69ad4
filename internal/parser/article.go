package parser

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pttcrawl/internal/model"
)

// selectorMainContent matches the root content container of an article page.
const selectorMainContent = "#main-content"

// articleDoc is the state shared by the article parsing steps.
type articleDoc struct {
	// main is the #main-content container. Steps remove noise from it
	// in place, so later steps see what earlier steps left behind.
	main *goquery.Selection

	// article is the result under construction.
	article *model.Article

	// bodyHTML and signatureHTML hold the rendered container after the
	// signature split, before wrapper markup is stripped.
	bodyHTML      string
	signatureHTML string
	hasSignature  bool
}

// articleStep is one stage of article parsing.
// A step never fails: it fills what it can and reports soft warnings.
type articleStep interface {
	// Do runs the step and returns its warnings, if any.
	Do(d *articleDoc) []string

	// Name returns the step's name for warning messages.
	Name() string
}

// articleSteps returns the parsing stages in execution order.
// Comments are extracted before their blocks are removed, and annotations
// are scanned before the source IP is derived from them.
func articleSteps() []articleStep {
	return []articleStep{
		metadataStep{},
		metalineRemovalStep{},
		commentStep{},
		commentRemovalStep{},
		annotationStep{},
		sourceIPStep{},
		richContentRemovalStep{},
		repostStep{},
		signatureSplitStep{},
		wrapperStripStep{},
	}
}

// ParseArticle parses one article page.
//
// Parsing is best-effort: malformed metadata, comments or annotations
// degrade the affected fields and are reported in Article.Warnings. The only
// hard failure is a page without a #main-content container, which returns a
// *model.InvalidTagError.
func ParseArticle(raw []byte, address string) (*model.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article %s: %w", address, err)
	}

	main := doc.Find(selectorMainContent).First()
	if main.Length() == 0 {
		return nil, &model.InvalidTagError{Element: selectorMainContent}
	}

	d := &articleDoc{
		main:    main,
		article: model.NewArticle(address),
	}
	for _, step := range articleSteps() {
		for _, warning := range step.Do(d) {
			d.article.Warnings = append(d.article.Warnings, step.Name()+": "+warning)
		}
	}
	d.article.Comments.Finalize()

	return d.article, nil
}
