package model

import "time"

// UnknownIP is the source IP recorded when no extraction strategy succeeds.
const UnknownIP = "unknown"

// Article is the parsed content of one post.
//
// Body and Signature partition the cleaned text at the first "--" line.
// Metadata fields are empty, and Datetime nil, when the metadata block is
// missing or malformed.
type Article struct {
	Address   string
	ContentID string
	Author    string
	Board     string
	Title     string
	Date      string
	Datetime  *time.Time
	Category  string
	IsReply   bool
	IsForward bool
	Body      string
	Signature string
	SourceIP  string
	Comments  *CommentSet

	// Annotations maps each "※ key: value" annotation label to its values.
	Annotations map[string][]string

	// Reposts holds repost notices found in the body, each rendered as the
	// marker line with its surrounding lines.
	Reposts []string

	// Warnings lists the soft failures met while parsing.
	Warnings []string
}

// NewArticle returns an Article with an empty comment set and the source IP
// set to UnknownIP.
func NewArticle(address string) *Article {
	a := &Article{
		Address:     address,
		SourceIP:    UnknownIP,
		Comments:    NewCommentSet(),
		Annotations: make(map[string][]string),
	}
	if addr, err := ParseAddress(address); err == nil {
		a.ContentID = addr.ContentID()
		a.Board = addr.Board()
	}
	return a
}

// Record flattens the article into one output row.
func (a *Article) Record() Record {
	comments := a.Comments
	if comments == nil {
		comments = NewCommentSet()
	}
	counts := comments.Counts()
	return Record{
		ContentID:     a.ContentID,
		Author:        a.Author,
		Board:         a.Board,
		Category:      a.Category,
		Title:         a.Title,
		Body:          a.Body,
		Date:          a.Date,
		SourceIP:      a.SourceIP,
		TotalComments: counts.All,
		Boo:           counts.Boo,
		Like:          counts.Like,
		Neutral:       counts.Neutral,
		Score:         counts.Score,
		Comments:      comments.Events(),
	}
}
