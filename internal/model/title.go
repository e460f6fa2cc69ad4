package model

import (
	"strings"

	"golang.org/x/text/width"
)

const (
	// ReplyMarker marks a reply in an article title.
	ReplyMarker = "Re:"

	// ForwardMarker marks a forwarded article in a title.
	ForwardMarker = "Fw:"
)

// ParseTitle decomposes a raw listing or article title.
//
// The category is the text between the first "[" and the first "]" after it.
// A title without such a pair has no category and returns "".
// Full-width brackets and markers (［公告］, Ｒｅ：) are recognized through
// their folded ASCII forms. The category keeps the raw text as written.
func ParseTitle(raw string) (category string, isReply, isForward bool) {
	runes := []rune(raw)
	open, end := -1, -1
	for i, r := range runes {
		switch width.Fold.String(string(r)) {
		case "[":
			if open < 0 {
				open = i
			}
		case "]":
			if open >= 0 && end < 0 {
				end = i
			}
		}
	}
	if open >= 0 && end > open {
		category = strings.TrimSpace(string(runes[open+1 : end]))
	}

	folded := width.Fold.String(raw)
	isReply = strings.Contains(folded, ReplyMarker)
	isForward = strings.Contains(folded, ForwardMarker)
	return category, isReply, isForward
}

// ParseUsername splits an author field of the form "id (nickname)".
// An author without a parenthesized nickname returns an empty nickname.
func ParseUsername(full string) (id, nickname string) {
	full = strings.TrimSpace(full)
	open := strings.Index(full, "(")
	if open < 0 {
		return full, ""
	}
	id = strings.TrimSpace(full[:open])
	nickname = full[open+1:]
	if end := strings.LastIndex(nickname, ")"); end >= 0 {
		nickname = nickname[:end]
	}
	return id, strings.TrimSpace(nickname)
}
