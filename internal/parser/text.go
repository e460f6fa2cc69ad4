package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/width"
)

var (
	// ipv4Pattern matches a dotted IPv4 address anywhere in a string.
	ipv4Pattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

	// parenthesizedIPv4Pattern matches an IPv4 address wrapped in parentheses,
	// the form used by edit and forward annotations.
	parenthesizedIPv4Pattern = regexp.MustCompile(`\((\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\)`)
)

// renderNode returns the HTML serialization of n, or "" if rendering fails.
func renderNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// nodeText returns the concatenated text content of n and its descendants.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// fragmentText converts an HTML fragment to plain text.
// Tags are dropped and entities decoded. Line structure is preserved.
func fragmentText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return doc.Text()
}

// trimLines removes leading and trailing blank lines and trailing spaces
// on each line while keeping the inner line structure.
func trimLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// findIPv4 returns the first IPv4 address in s.
func findIPv4(s string) (string, bool) {
	ip := ipv4Pattern.FindString(s)
	return ip, ip != ""
}

// fold maps full-width ASCII variants, such as "：", to their narrow forms.
func fold(s string) string {
	return width.Fold.String(s)
}

// removeNode detaches n from its parent. A detached node is left untouched.
func removeNode(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// within reports whether n is still attached below root.
// Nodes inside an already removed subtree are not.
func within(root, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
