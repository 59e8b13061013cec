package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"context-reminder/internal/collection"
	"context-reminder/internal/model"
	"context-reminder/internal/parser"
	"context-reminder/internal/repository"
)

var (
	ErrEmptyTitle   = errors.New("reminder title is empty")
	ErrAccessDenied = errors.New("access denied")
)

// TextInput is free-form reminder text plus anything the user picked
// explicitly alongside it.
type TextInput struct {
	Text        string
	Description string
	Source      model.Source
	Overrides   parser.Overrides
}

// ReminderInput represents data required to create a reminder without parsing.
type ReminderInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority
	Source      model.Source
	ContextType string
}

// ReminderUpdate is a partial update. Nil fields are left untouched.
type ReminderUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *model.Priority
	ContextType  *string
}

// DateGroup is one bucket of a grouped listing.
type DateGroup struct {
	Key       string
	Reminders []model.Reminder
}

// ReminderService wraps reminder business logic. Due dates handed out are
// converted to loc.
type ReminderService struct {
	repo *repository.ReminderRepository
	loc  *time.Location
}

func NewReminderService(repo *repository.ReminderRepository, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{repo: repo, loc: loc}
}

func (s *ReminderService) Location() *time.Location {
	return s.loc
}

// CreateFromText parses the text relative to now, applies explicit
// overrides and stores the result.
func (s *ReminderService) CreateFromText(ctx context.Context, user *model.User, in TextInput, now time.Time) (*model.Reminder, error) {
	draft := parser.Parse(in.Text, now.In(s.loc)).Merge(in.Overrides, now.In(s.loc))

	return s.Create(ctx, user, ReminderInput{
		Title:       draft.Title,
		Description: in.Description,
		DueDate:     draft.DueDate,
		Priority:    draft.Priority,
		Source:      in.Source,
		ContextType: draft.ContextType,
	})
}

func (s *ReminderService) Create(ctx context.Context, user *model.User, in ReminderInput) (*model.Reminder, error) {
	if user == nil {
		return nil, ErrAccessDenied
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	source := in.Source
	if source == "" {
		source = model.SourceText
	}

	reminder := model.Reminder{
		UserID:      user.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Source:      source,
		ContextType: in.ContextType,
	}
	if err := s.repo.Create(ctx, &reminder); err != nil {
		return nil, err
	}
	s.localize(&reminder)
	return &reminder, nil
}

// Resolve finds a reminder by its full id or by the short prefix shown in chat.
func (s *ReminderService) Resolve(ctx context.Context, user *model.User, ref string) (*model.Reminder, error) {
	if user == nil {
		return nil, ErrAccessDenied
	}
	ref = strings.TrimSpace(ref)

	var (
		reminder *model.Reminder
		err      error
	)
	if len(ref) == 36 {
		reminder, err = s.repo.FindByID(ctx, user.ID, ref)
	} else {
		reminder, err = s.repo.FindByIDPrefix(ctx, user.ID, ref)
	}
	if err != nil {
		return nil, err
	}
	s.localize(reminder)
	return reminder, nil
}

// Toggle flips the completion flag.
func (s *ReminderService) Toggle(ctx context.Context, user *model.User, ref string) (*model.Reminder, error) {
	reminder, err := s.Resolve(ctx, user, ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ToggleCompleted(ctx, user.ID, reminder.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, user, reminder.ID)
}

// Update applies a partial update and writes only the changed columns.
// A changed due date is announced again.
func (s *ReminderService) Update(ctx context.Context, user *model.User, ref string, upd ReminderUpdate) (*model.Reminder, error) {
	reminder, err := s.Resolve(ctx, user, ref)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		fields["title"] = title
	}
	if upd.Description != nil {
		fields["description"] = strings.TrimSpace(*upd.Description)
	}
	if upd.Priority != nil {
		fields["priority"] = *upd.Priority
	}
	if upd.ContextType != nil {
		fields["context_type"] = *upd.ContextType
	}

	switch {
	case upd.ClearDueDate:
		if reminder.DueDate != nil {
			fields["due_date"] = nil
			fields["notified_at"] = nil
		}
	case upd.DueDate != nil:
		if reminder.DueDate == nil || !reminder.DueDate.Equal(*upd.DueDate) {
			fields["due_date"] = upd.DueDate.UTC()
			fields["notified_at"] = nil
		}
	}

	if err := s.repo.UpdateFields(ctx, user.ID, reminder.ID, fields); err != nil {
		return nil, err
	}
	return s.reload(ctx, user, reminder.ID)
}

func (s *ReminderService) reload(ctx context.Context, user *model.User, id string) (*model.Reminder, error) {
	reminder, err := s.repo.FindByID(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	s.localize(reminder)
	return reminder, nil
}

// UpdateFromText re-parses text into an update. Only what the parser
// found replaces stored values; the title always does.
func (s *ReminderService) UpdateFromText(ctx context.Context, user *model.User, ref, text string, now time.Time) (*model.Reminder, error) {
	draft := parser.Parse(text, now.In(s.loc))

	upd := ReminderUpdate{Title: &draft.Title, DueDate: draft.DueDate}
	if draft.Priority != model.PriorityNone {
		upd.Priority = &draft.Priority
	}
	if draft.ContextType != "" {
		upd.ContextType = &draft.ContextType
	}
	return s.Update(ctx, user, ref, upd)
}

func (s *ReminderService) Delete(ctx context.Context, user *model.User, ref string) error {
	reminder, err := s.Resolve(ctx, user, ref)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, user.ID, reminder.ID)
}

// List returns the user's reminders that match criteria, sorted.
func (s *ReminderService) List(ctx context.Context, user *model.User, criteria collection.FilterCriteria) ([]model.Reminder, error) {
	if user == nil {
		return nil, ErrAccessDenied
	}
	reminders, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for i := range reminders {
		s.localize(&reminders[i])
	}
	return collection.Sort(collection.Filter(reminders, criteria)), nil
}

// Grouped lists like List and buckets the result by due day.
func (s *ReminderService) Grouped(ctx context.Context, user *model.User, criteria collection.FilterCriteria) ([]DateGroup, error) {
	reminders, err := s.List(ctx, user, criteria)
	if err != nil {
		return nil, err
	}
	groups := collection.GroupByDate(reminders)

	out := make([]DateGroup, 0, len(groups))
	for _, key := range collection.GroupKeys(groups) {
		out = append(out, DateGroup{Key: key, Reminders: groups[key]})
	}
	return out, nil
}

func (s *ReminderService) Contexts(ctx context.Context, user *model.User) ([]string, error) {
	if user == nil {
		return nil, ErrAccessDenied
	}
	return s.repo.ListContexts(ctx, user.ID)
}

// CollectDue hands every reminder that fell due and was not announced yet
// to deliver. Delivered reminders are marked so they are sent once.
func (s *ReminderService) CollectDue(ctx context.Context, now time.Time, deliver func(context.Context, model.Reminder) error) (int, error) {
	due, err := s.repo.ListDueUnnotified(ctx, now)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, reminder := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		s.localize(&reminder)
		if err := deliver(ctx, reminder); err != nil {
			errs = append(errs, fmt.Errorf("deliver reminder %s: %w", reminder.ShortID(), err))
			continue
		}
		// a reschedule during delivery leaves the new due date armed
		if _, err := s.repo.MarkNotified(ctx, reminder.ID, *reminder.DueDate, now); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *ReminderService) localize(r *model.Reminder) {
	if r.DueDate != nil {
		due := r.DueDate.In(s.loc)
		r.DueDate = &due
	}
}
