package model

import "strings"

// Comment type markers as they appear in the push-tag of a comment row.
const (
	LikeMarker = "推"
	BooMarker  = "噓"
)

// CommentType classifies a comment event.
type CommentType string

const (
	// CommentLike is an affirmative comment (推).
	CommentLike CommentType = "like"
	// CommentBoo is a negative comment (噓).
	CommentBoo CommentType = "boo"
	// CommentNeutral is any other comment, usually an arrow (→).
	CommentNeutral CommentType = "neutral"
)

// CommentEvent is one comment line attached to an article.
type CommentEvent struct {
	// Type is the raw marker text, e.g. "推", "噓" or "→".
	Type string `json:"type"`

	// User is the commenter id.
	User string `json:"user"`

	// Content is the comment text without the leading colon.
	Content string `json:"content"`

	// IPDatetime is the trailing "ip mm/dd hh:mm" text, as shown.
	IPDatetime string `json:"ip_datetime"`
}

// Classify maps the raw marker to a CommentType.
func (e CommentEvent) Classify() CommentType {
	switch strings.TrimSpace(e.Type) {
	case LikeMarker:
		return CommentLike
	case BooMarker:
		return CommentBoo
	default:
		return CommentNeutral
	}
}

// Counts are the aggregate numbers derived from a CommentSet.
// All == Like + Boo + Neutral and Score == Like - Boo always hold.
type Counts struct {
	All     int `json:"all"`
	Like    int `json:"like"`
	Boo     int `json:"boo"`
	Neutral int `json:"neutral"`
	Score   int `json:"score"`
}

// CommentSet owns the ordered comment events of one article and the counts
// derived from them. The zero value is an empty set ready to use.
type CommentSet struct {
	events []CommentEvent
	counts Counts
	final  bool
}

// NewCommentSet returns an empty CommentSet.
func NewCommentSet() *CommentSet {
	return &CommentSet{}
}

// Add appends an event. Events without a type are rejected.
// Adding after Finalize invalidates the cached counts.
func (c *CommentSet) Add(event CommentEvent) error {
	if strings.TrimSpace(event.Type) == "" {
		return ErrEmptyCommentType
	}
	c.events = append(c.events, event)
	c.final = false
	return nil
}

// Finalize computes the counts in one pass over the events.
// Calling it again on the same events yields the same counts.
func (c *CommentSet) Finalize() Counts {
	var counts Counts
	for _, e := range c.events {
		switch e.Classify() {
		case CommentLike:
			counts.Like++
		case CommentBoo:
			counts.Boo++
		default:
			counts.Neutral++
		}
	}
	counts.All = counts.Like + counts.Boo + counts.Neutral
	counts.Score = counts.Like - counts.Boo

	c.counts = counts
	c.final = true
	return counts
}

// Counts returns the aggregate counts, finalizing first if needed.
func (c *CommentSet) Counts() Counts {
	if !c.final {
		return c.Finalize()
	}
	return c.counts
}

// Events returns a copy of the events in insertion order.
func (c *CommentSet) Events() []CommentEvent {
	out := make([]CommentEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of events.
func (c *CommentSet) Len() int {
	return len(c.events)
}
