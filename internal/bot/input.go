package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"context-reminder/internal/collection"
	"context-reminder/internal/config"
	"context-reminder/internal/model"
	"context-reminder/internal/parser"
)

// parseFilterArgs reads /list arguments: #context, !priority,
// src:source and all; every other word is search text.
func parseFilterArgs(args string) collection.FilterCriteria {
	var (
		criteria collection.FilterCriteria
		search   []string
	)
	for _, token := range strings.Fields(args) {
		lower := strings.ToLower(token)
		switch {
		case lower == "all":
			criteria.IncludeCompleted = true
		case strings.HasPrefix(lower, "#") && len(lower) > 1:
			criteria.ContextType = lower[1:]
		case strings.HasPrefix(lower, "!"):
			if p, ok := model.ParsePriority(lower[1:]); ok {
				criteria.Priority = p
				continue
			}
			search = append(search, token)
		case strings.HasPrefix(lower, "src:"):
			if s, ok := model.ParseSource(lower[len("src:"):]); ok {
				criteria.Source = s
				continue
			}
			search = append(search, token)
		default:
			search = append(search, token)
		}
	}
	criteria.SearchText = strings.Join(search, " ")
	return criteria
}

// parseExplicitDate accepts "2006-01-02", "2006-01-02 15:04" or "15:04".
func parseExplicitDate(text string, loc *time.Location) (*time.Time, *parser.Clock, error) {
	fields := strings.Fields(text)
	var datePart, clockPart string
	switch len(fields) {
	case 1:
		if strings.Contains(fields[0], "-") {
			datePart = fields[0]
		} else {
			clockPart = fields[0]
		}
	case 2:
		datePart, clockPart = fields[0], fields[1]
	default:
		return nil, nil, fmt.Errorf("invalid date %q", text)
	}

	var date *time.Time
	if datePart != "" {
		parsed, err := time.ParseInLocation("2006-01-02", datePart, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date %q: %w", datePart, err)
		}
		date = &parsed
	}

	var clock *parser.Clock
	if clockPart != "" {
		hour, minute, err := config.ParseClock(clockPart)
		if err != nil {
			return nil, nil, err
		}
		clock = &parser.Clock{Hour: hour, Minute: minute}
	}
	return date, clock, nil
}

func parsePriorityInput(text string) (model.Priority, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case strings.ToLower(btnHigh):
		return model.PriorityHigh, true
	case strings.ToLower(btnMedium):
		return model.PriorityMedium, true
	case strings.ToLower(btnLow):
		return model.PriorityLow, true
	}
	return model.ParsePriority(text)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "yes" || value == "delete" || value == "confirm"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "no" || value == "keep"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func contextLabel(name string) string {
	var icon string
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "work":
		icon = "💼"
	case "home":
		icon = "🏠"
	case "shopping":
		icon = "🛒"
	case "meeting":
		icon = "🤝"
	case "call":
		icon = "📞"
	case "email":
		icon = "✉️"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(name)))
}

func escape(s string) string {
	return html.EscapeString(s)
}
