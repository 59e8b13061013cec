// Package parser turns free-form reminder text, typed or transcribed,
// into a draft reminder: a title with keywords stripped, an optional due
// date, a priority and a context tag.
//
// Extraction is a fixed table of keyword and pattern rules. Nothing here
// reads the system clock; callers pass the reference instant.
package parser

import (
	"sort"
	"time"

	"context-reminder/internal/model"
)

// Draft is the unconfirmed result of Parse. Keywords lists the phrases
// the rules recognised, in text order.
type Draft struct {
	Title       string
	DueDate     *time.Time
	Priority    model.Priority
	ContextType string
	Keywords    []string
}

// Parse extracts a draft reminder from text relative to now.
func Parse(text string, now time.Time) Draft {
	when := ResolveDateTime(text, now)
	// attributes look at the original text so a date cut cannot hide a keyword
	attrs := ExtractAttributes(text)

	spans := make([]Span, 0, len(when.Spans)+len(attrs.Spans))
	spans = append(spans, when.Spans...)
	spans = append(spans, attrs.Spans...)

	return Draft{
		Title:       stripSpans(text, spans),
		DueDate:     when.Due,
		Priority:    attrs.Priority,
		ContextType: attrs.ContextType,
		Keywords:    keywords(text, spans, attrs.ContextSpan),
	}
}

func keywords(text string, spans []Span, contextSpan *Span) []string {
	all := append([]Span(nil), spans...)
	if contextSpan != nil {
		all = append(all, *contextSpan)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	var out []string
	for _, s := range all {
		if kw := s.Text(text); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Overrides are values the user picked explicitly through structured
// controls. Zero values mean "not chosen".
type Overrides struct {
	Title       string
	Date        *time.Time
	Clock       *Clock
	Priority    model.Priority
	ContextType string
}

// Merge applies explicit choices on top of the draft. An explicit value
// always wins over a parsed one. A clock without a date lands on the
// draft's date, or on now's date when the draft has none.
func (d Draft) Merge(o Overrides, now time.Time) Draft {
	out := d
	if o.Title != "" {
		out.Title = o.Title
	}
	if o.Priority != model.PriorityNone {
		out.Priority = o.Priority
	}
	if o.ContextType != "" {
		out.ContextType = o.ContextType
	}

	var due *time.Time
	switch {
	case o.Date != nil:
		t := *o.Date
		if o.Clock != nil {
			t = o.Clock.On(t)
		}
		due = &t
	case o.Clock != nil:
		base := now
		if d.DueDate != nil {
			base = *d.DueDate
		}
		t := o.Clock.On(base)
		due = &t
	default:
		due = d.DueDate
	}
	out.DueDate = due

	return out
}
