package parser

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/pttcrawl/internal/model"
)

// Article page selectors and markers.
const (
	selectorMetaValue      = "span.article-meta-value"
	selectorMetaline       = "div.article-metaline"
	selectorMetalineRight  = "div.article-metaline-right"
	selectorComment        = "div.push"
	selectorCommentTag     = "span.push-tag"
	selectorCommentUser    = "span.push-userid"
	selectorCommentContent = "span.push-content"
	selectorCommentIPTime  = "span.push-ipdatetime"
	selectorAnnotation     = "span.f2"
	selectorRichContent    = "div.richcontent"

	annotationMarker = "※"
	quotedMarker     = "引述"
	originLabel      = "發信站"
	repostNotice     = "轉錄至看板"
	signatureLine    = "--"
)

// metadataFields is the number of positional metadata values:
// author, board, title and date.
const metadataFields = 4

// articleLocation is the time zone article dates are written in.
var articleLocation = time.FixedZone("CST", 8*60*60)

// articleDateLayouts are tried in order when parsing the date metadata.
var articleDateLayouts = []string{
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan 2 15:04:05 2006",
}

// fromLabels introduce a source address in annotation lines.
var fromLabels = []string{"來自:", "From:"}

// metadataStep reads author, board, title and date from the first four
// metadata values.
type metadataStep struct{}

func (metadataStep) Name() string { return "metadata" }

func (metadataStep) Do(d *articleDoc) []string {
	values := d.main.Find(selectorMetaValue)
	if values.Length() < metadataFields {
		return []string{fmt.Sprintf("expected %d metadata values, found %d", metadataFields, values.Length())}
	}

	text := func(i int) string {
		return strings.TrimSpace(values.Eq(i).Text())
	}

	a := d.article
	a.Author = text(0)
	if board := text(1); board != "" {
		a.Board = board
	}
	a.Title = text(2)
	a.Date = text(3)
	a.Category, a.IsReply, a.IsForward = model.ParseTitle(a.Title)

	for _, layout := range articleDateLayouts {
		if t, err := time.ParseInLocation(layout, a.Date, articleLocation); err == nil {
			a.Datetime = &t
			return nil
		}
	}
	return []string{fmt.Sprintf("unparsable date %q", a.Date)}
}

// metalineRemovalStep drops the metadata lines so they do not leak into
// the body text.
type metalineRemovalStep struct{}

func (metalineRemovalStep) Name() string { return "metaline" }

func (metalineRemovalStep) Do(d *articleDoc) []string {
	d.main.Find(selectorMetaline + ", " + selectorMetalineRight).Remove()
	return nil
}

// commentStep turns every comment block with a type tag into a comment
// event. Blocks without a tag are skipped.
type commentStep struct{}

func (commentStep) Name() string { return "comments" }

func (commentStep) Do(d *articleDoc) []string {
	var warnings []string
	d.main.Find(selectorComment).Each(func(i int, block *goquery.Selection) {
		tag := block.Find(selectorCommentTag).First()
		if tag.Length() == 0 {
			return
		}

		content := strings.TrimSpace(block.Find(selectorCommentContent).First().Text())
		event := model.CommentEvent{
			Type:       strings.TrimSpace(tag.Text()),
			User:       strings.TrimSpace(block.Find(selectorCommentUser).First().Text()),
			Content:    strings.TrimSpace(strings.TrimPrefix(content, ":")),
			IPDatetime: strings.TrimSpace(block.Find(selectorCommentIPTime).First().Text()),
		}
		if err := d.article.Comments.Add(event); err != nil {
			warnings = append(warnings, fmt.Sprintf("comment %d: %v", i, err))
		}
	})
	return warnings
}

// commentRemovalStep drops the comment blocks from the container.
type commentRemovalStep struct{}

func (commentRemovalStep) Name() string { return "comment-removal" }

func (commentRemovalStep) Do(d *articleDoc) []string {
	d.main.Find(selectorComment).Remove()
	return nil
}

// annotationStep records every "※ key: value" annotation line in
// Article.Annotations and removes it from the container. Quoted-reference
// lines stay in the body and repost notices are left for repostStep.
type annotationStep struct{}

func (annotationStep) Name() string { return "annotations" }

func (annotationStep) Do(d *articleDoc) []string {
	root := d.main.Get(0)
	d.main.Find(selectorAnnotation).Each(func(_ int, span *goquery.Selection) {
		if !within(root, span.Get(0)) {
			return
		}
		text := fold(span.Text())
		if !strings.Contains(text, annotationMarker) {
			return
		}
		if strings.Contains(text, quotedMarker) || strings.Contains(text, repostNotice) {
			return
		}

		key, value, _ := strings.Cut(text, ":")
		key = strings.Trim(key, annotationMarker+" \t\n")
		value = strings.TrimSpace(value)

		d.article.Annotations[key] = append(d.article.Annotations[key], value)
		span.Remove()
	})
	return nil
}

// sourceIPStep derives the poster's IP. It tries the origin annotation,
// then any "from" line, then a parenthesized address anywhere in the text,
// and settles for model.UnknownIP.
type sourceIPStep struct{}

func (sourceIPStep) Name() string { return "source-ip" }

func (sourceIPStep) Do(d *articleDoc) []string {
	a := d.article
	keys := slices.Sorted(maps.Keys(a.Annotations))

	if ip, ok := originIP(a.Annotations, keys); ok {
		a.SourceIP = ip
		return nil
	}
	if ip, ok := fromLineIP(a.Annotations, keys, d.main.Text()); ok {
		a.SourceIP = ip
		return nil
	}
	if ip, ok := parenthesizedIP(a.Annotations, keys, d.main.Text()); ok {
		a.SourceIP = ip
		return nil
	}

	a.SourceIP = model.UnknownIP
	return []string{"no source ip found"}
}

// originIP reads the address from the origin annotation.
func originIP(annotations map[string][]string, keys []string) (string, bool) {
	for _, key := range keys {
		if !strings.Contains(key, originLabel) {
			continue
		}
		for _, value := range annotations[key] {
			if ip, ok := findIPv4(value); ok {
				return ip, true
			}
		}
	}
	return "", false
}

// fromLineIP looks for an address on any line labeled "來自:" or "From:".
func fromLineIP(annotations map[string][]string, keys []string, text string) (string, bool) {
	var lines []string
	for _, key := range keys {
		for _, value := range annotations[key] {
			lines = append(lines, key+": "+value)
		}
	}
	lines = append(lines, strings.Split(fold(text), "\n")...)

	for _, line := range lines {
		for _, label := range fromLabels {
			i := strings.Index(line, label)
			if i < 0 {
				continue
			}
			if ip, ok := findIPv4(line[i+len(label):]); ok {
				return ip, true
			}
		}
	}
	return "", false
}

// parenthesizedIP finds the first "(a.b.c.d)" in the container text, then
// in the recorded annotations.
func parenthesizedIP(annotations map[string][]string, keys []string, text string) (string, bool) {
	if m := parenthesizedIPv4Pattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	for _, key := range keys {
		for _, value := range annotations[key] {
			if m := parenthesizedIPv4Pattern.FindStringSubmatch(value); m != nil {
				return m[1], true
			}
		}
	}
	return "", false
}

// richContentRemovalStep drops embedded images and link previews.
type richContentRemovalStep struct{}

func (richContentRemovalStep) Name() string { return "rich-content" }

func (richContentRemovalStep) Do(d *articleDoc) []string {
	d.main.Find(selectorRichContent).Remove()
	return nil
}

// repostStep moves repost notices out of the body. Each notice is the
// marker span together with its adjacent siblings on the same line.
type repostStep struct{}

func (repostStep) Name() string { return "reposts" }

func (repostStep) Do(d *articleDoc) []string {
	d.main.Find(selectorAnnotation).Each(func(_ int, span *goquery.Selection) {
		if !strings.Contains(span.Text(), repostNotice) {
			return
		}
		node := span.Get(0)
		if !within(d.main.Get(0), node) {
			return
		}

		parts := []string{
			takeBefore(node),
			strings.TrimSpace(nodeText(node)),
			takeAfter(node),
		}
		parts = slices.DeleteFunc(parts, func(s string) bool { return s == "" })

		d.article.Reposts = append(d.article.Reposts, strings.Join(parts, " "))
		removeNode(node)
	})
	return nil
}

// takeBefore detaches the sibling just before n. An element sibling is
// taken whole; a text sibling gives up only the text on n's line.
func takeBefore(n *html.Node) string {
	prev := n.PrevSibling
	if prev == nil {
		return ""
	}
	if prev.Type == html.ElementNode {
		text := strings.TrimSpace(nodeText(prev))
		removeNode(prev)
		return text
	}
	if prev.Type != html.TextNode {
		return ""
	}

	i := strings.LastIndex(prev.Data, "\n")
	line := prev.Data[i+1:]
	prev.Data = prev.Data[:i+1]
	if prev.Data == "" {
		removeNode(prev)
	}
	return strings.TrimSpace(line)
}

// takeAfter detaches the sibling just after n, following the same rules as
// takeBefore.
func takeAfter(n *html.Node) string {
	next := n.NextSibling
	if next == nil {
		return ""
	}
	if next.Type == html.ElementNode {
		text := strings.TrimSpace(nodeText(next))
		removeNode(next)
		return text
	}
	if next.Type != html.TextNode {
		return ""
	}

	i := strings.Index(next.Data, "\n")
	if i < 0 {
		i = len(next.Data)
	}
	line := next.Data[:i]
	next.Data = next.Data[i:]
	if next.Data == "" {
		removeNode(next)
	}
	return strings.TrimSpace(line)
}

// signatureSplitStep renders the container and splits it at the first
// line that is exactly the signature delimiter.
type signatureSplitStep struct{}

func (signatureSplitStep) Name() string { return "signature-split" }

func (signatureSplitStep) Do(d *articleDoc) []string {
	rendered := renderNode(d.main.Get(0))
	if rendered == "" {
		return []string{"container could not be rendered"}
	}

	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		if i == 0 {
			line = stripOpeningWrapper(line)
		}
		if strings.TrimSpace(line) == signatureLine {
			d.bodyHTML = strings.Join(lines[:i], "\n")
			d.signatureHTML = strings.Join(lines[i+1:], "\n")
			d.hasSignature = true
			return nil
		}
	}

	d.bodyHTML = rendered
	return nil
}

// wrapperStripStep removes the container's own opening and closing tags
// from the split parts and converts both to plain text.
type wrapperStripStep struct{}

func (wrapperStripStep) Name() string { return "wrapper-strip" }

func (wrapperStripStep) Do(d *articleDoc) []string {
	body := stripOpeningWrapper(d.bodyHTML)
	signature := d.signatureHTML
	if d.hasSignature {
		signature = stripClosingWrapper(signature)
	} else {
		body = stripClosingWrapper(body)
	}

	d.article.Body = trimLines(fragmentText(body))
	d.article.Signature = trimLines(fragmentText(signature))
	return nil
}

// stripOpeningWrapper removes the container's opening tag from the first
// line that carries it, dropping the line if nothing else is left on it.
func stripOpeningWrapper(fragment string) string {
	lines := strings.Split(fragment, "\n")
	for i, line := range lines {
		start := strings.Index(line, "<div")
		if start < 0 || !strings.Contains(line, "main-content") {
			continue
		}
		end := strings.Index(line[start:], ">")
		if end < 0 {
			continue
		}
		rest := line[:start] + line[start+end+1:]
		if strings.TrimSpace(rest) == "" {
			return strings.Join(slices.Delete(lines, i, i+1), "\n")
		}
		lines[i] = rest
		return strings.Join(lines, "\n")
	}
	return fragment
}

// stripClosingWrapper removes the last closing div tag, which belongs to
// the container, dropping its line if nothing else is left on it.
func stripClosingWrapper(fragment string) string {
	lines := strings.Split(fragment, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		end := strings.LastIndex(lines[i], "</div>")
		if end < 0 {
			continue
		}
		rest := lines[i][:end] + lines[i][end+len("</div>"):]
		if strings.TrimSpace(rest) == "" {
			return strings.Join(slices.Delete(lines, i, i+1), "\n")
		}
		lines[i] = rest
		return strings.Join(lines, "\n")
	}
	return fragment
}
