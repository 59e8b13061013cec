// Package collection holds the pure operations the presentation layer
// runs over a snapshot of reminders. None of them mutate their input.
package collection

import (
	"sort"
	"strings"
	"time"

	"context-reminder/internal/model"
)

// NoDateKey is the bucket for reminders without a due date.
const NoDateKey = "No Date"

// dateKeyLayout formats bucket keys; it sorts lexically in date order.
const dateKeyLayout = "2006-01-02"

// Sort returns a new slice ordered by: incomplete first, dated before
// undated with earlier dates first, priority rank, then newest first.
// The sort is stable.
func Sort(reminders []model.Reminder) []model.Reminder {
	out := make([]model.Reminder, len(reminders))
	copy(out, reminders)
	sort.SliceStable(out, func(i, j int) bool {
		return less(&out[i], &out[j])
	})
	return out
}

func less(a, b *model.Reminder) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
	case a.DueDate != nil:
		return true
	case b.DueDate != nil:
		return false
	}

	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra < rb
	}

	return a.CreatedAt.After(b.CreatedAt)
}

// DateKey is the bucket key for a reminder.
func DateKey(r model.Reminder) string {
	if !r.HasDueDate() {
		return NoDateKey
	}
	return r.DueDate.Format(dateKeyLayout)
}

// GroupByDate buckets reminders by the calendar date of their due date,
// in the due date's own location. Members keep their input order.
func GroupByDate(reminders []model.Reminder) map[string][]model.Reminder {
	groups := make(map[string][]model.Reminder)
	for _, r := range reminders {
		key := DateKey(r)
		groups[key] = append(groups[key], r)
	}
	return groups
}

// GroupKeys lists the keys of groups with dates ascending and NoDateKey last.
func GroupKeys(groups map[string][]model.Reminder) []string {
	keys := make([]string, 0, len(groups))
	hasNoDate := false
	for key := range groups {
		if key == NoDateKey {
			hasNoDate = true
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if hasNoDate {
		keys = append(keys, NoDateKey)
	}
	return keys
}

// FilterCriteria selects reminders. Zero fields impose no constraint,
// except IncludeCompleted: completed reminders are dropped unless it is set.
type FilterCriteria struct {
	SearchText       string
	Priority         model.Priority
	Source           model.Source
	ContextType      string
	IncludeCompleted bool
}

// IsZero reports whether c only applies the default completed filter.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// Match reports whether r passes every supplied criterion.
func (c FilterCriteria) Match(r model.Reminder) bool {
	if !c.IncludeCompleted && r.Completed {
		return false
	}
	if c.SearchText != "" {
		needle := strings.ToLower(c.SearchText)
		if !strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
	}
	if c.Priority != model.PriorityNone && r.Priority != c.Priority {
		return false
	}
	if c.Source != "" && r.Source != c.Source {
		return false
	}
	if c.ContextType != "" && r.ContextType != c.ContextType {
		return false
	}
	return true
}

// Filter returns the reminders that match criteria, in input order.
func Filter(reminders []model.Reminder, criteria FilterCriteria) []model.Reminder {
	out := make([]model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if criteria.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsOverdue reports whether an open reminder's due date has passed.
func IsOverdue(r model.Reminder, now time.Time) bool {
	if !r.HasDueDate() || r.Completed {
		return false
	}
	return now.After(*r.DueDate)
}

// Overdue returns the overdue reminders, in input order.
func Overdue(reminders []model.Reminder, now time.Time) []model.Reminder {
	var out []model.Reminder
	for _, r := range reminders {
		if IsOverdue(r, now) {
			out = append(out, r)
		}
	}
	return out
}
