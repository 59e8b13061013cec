package parser

import (
	"regexp"
	"strings"

	"context-reminder/internal/model"
)

type priorityRule struct {
	// any matches the keywords anywhere, word only as whole words.
	any      *regexp.Regexp
	word     *regexp.Regexp
	priority model.Priority
}

type contextRule struct {
	pattern     *regexp.Regexp
	contextType string
}

func newPriorityRule(p model.Priority, keywords ...string) priorityRule {
	alt := strings.Join(keywords, "|")
	return priorityRule{
		any:      regexp.MustCompile(`(?i)(?:` + alt + `)`),
		word:     regexp.MustCompile(`(?i)\b(?:` + alt + `)\b`),
		priority: p,
	}
}

func newContextRule(contextType string, keywords ...string) contextRule {
	return contextRule{
		pattern:     regexp.MustCompile(`(?i)(?:` + strings.Join(keywords, "|") + `)`),
		contextType: contextType,
	}
}

// First match wins in both tables.
var (
	priorityRules = []priorityRule{
		newPriorityRule(model.PriorityHigh, "urgent", "important"),
		newPriorityRule(model.PriorityMedium, "medium"),
		newPriorityRule(model.PriorityLow, "low"),
	}

	contextRules = []contextRule{
		newContextRule("work", "work", "office", "job"),
		newContextRule("home", "home", "house"),
		newContextRule("shopping", "shop", "buy", "purchase"),
		newContextRule("meeting", "meet", "meeting", "appointment"),
		newContextRule("call", "call", "phone"),
		newContextRule("email", "email", "mail"),
	}
)

// Attributes holds the keyword-derived fields of a text.
//
// Spans lists the priority keyword to cut from the title; it is only
// reported when the keyword stands as a whole word. ContextSpan points at
// the context keyword, which stays in the title.
type Attributes struct {
	Priority    model.Priority
	ContextType string
	Spans       []Span
	ContextSpan *Span
}

// ExtractAttributes detects priority and context keywords in text.
func ExtractAttributes(text string) Attributes {
	var attrs Attributes

	for _, rule := range priorityRules {
		if !rule.any.MatchString(text) {
			continue
		}
		attrs.Priority = rule.priority
		if loc := rule.word.FindStringIndex(text); loc != nil {
			attrs.Spans = append(attrs.Spans, Span{Start: loc[0], End: loc[1]})
		}
		break
	}

	for _, rule := range contextRules {
		loc := rule.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		attrs.ContextType = rule.contextType
		attrs.ContextSpan = &Span{Start: loc[0], End: loc[1]}
		break
	}

	return attrs
}
