package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"context-reminder/internal/collection"
	"context-reminder/internal/model"
)

// Summary builds the HTML digest sent to the chat: overdue reminders
// first, then open reminders by due day, then undated ones.
func (s *ReminderService) Summary(ctx context.Context, user *model.User, now time.Time) (string, error) {
	reminders, err := s.List(ctx, user, collection.FilterCriteria{})
	if err != nil {
		return "", err
	}
	now = now.In(s.loc)

	overdue := collection.Overdue(reminders, now)
	var upcoming []model.Reminder
	for _, r := range reminders {
		if !collection.IsOverdue(r, now) {
			upcoming = append(upcoming, r)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Reminder digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("Mon, 02 Jan 2006")))

	if len(reminders) == 0 {
		builder.WriteString("\n— nothing pending\n")
		return strings.TrimSpace(builder.String()), nil
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, r := range overdue {
			builder.WriteString(FormatReminder(r, now))
		}
	}

	groups := collection.GroupByDate(upcoming)
	for _, key := range collection.GroupKeys(groups) {
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(DateLabel(key, now))))
		for _, r := range groups[key] {
			builder.WriteString(FormatReminder(r, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// DateLabel names a group key relative to now.
func DateLabel(key string, now time.Time) string {
	if key == collection.NoDateKey {
		return key
	}
	day, err := time.ParseInLocation("2006-01-02", key, now.Location())
	if err != nil {
		return key
	}
	switch key {
	case now.Format("2006-01-02"):
		return "Today"
	case now.AddDate(0, 0, 1).Format("2006-01-02"):
		return "Tomorrow"
	case now.AddDate(0, 0, -1).Format("2006-01-02"):
		return "Yesterday"
	}
	return day.Format("Mon, 02 Jan")
}

// FormatReminder renders one reminder as an HTML line block.
func FormatReminder(r model.Reminder, now time.Time) string {
	var sb strings.Builder

	icon := "🔔"
	switch {
	case r.Completed:
		icon = "✅"
	case collection.IsOverdue(r, now):
		icon = "⚠️"
	case r.Priority == model.PriorityHigh:
		icon = "🔥"
	case r.DueDate != nil && r.DueDate.Sub(now) <= 2*time.Hour:
		icon = "⏳"
	}

	title := html.EscapeString(strings.TrimSpace(r.Title))
	if r.Completed {
		title = "<s>" + title + "</s>"
	}
	sb.WriteString(fmt.Sprintf("%s %s <code>%s</code>", icon, title, r.ShortID()))

	var tags []string
	if r.Priority != model.PriorityNone {
		tags = append(tags, "!"+string(r.Priority))
	}
	if r.ContextType != "" {
		tags = append(tags, "#"+r.ContextType)
	}
	if r.Source != "" && r.Source != model.SourceText {
		tags = append(tags, "via "+string(r.Source))
	}
	if len(tags) > 0 {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.Join(tags, ", "))))
	}

	if r.DueDate != nil {
		d := r.DueDate.In(now.Location())
		if collection.IsOverdue(r, now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s, <b>overdue</b>", d.Format("2006-01-02 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s", d.Format("2006-01-02 15:04")))
		}
	}

	if r.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(r.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
