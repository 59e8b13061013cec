package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"context-reminder/internal/model"
)

// ReminderRepository handles CRUD for reminders. Every lookup is scoped
// to the owning user.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// ListByUser returns every reminder of the user, newest first.
func (r *ReminderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

func (r *ReminderRepository) FindByID(ctx context.Context, userID uint, id string) (*model.Reminder, error) {
	var reminder model.Reminder
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&reminder).Error; err != nil {
		return nil, notFound(err, "reminder")
	}
	return &reminder, nil
}

// FindByIDPrefix resolves the short ids shown in chat.
func (r *ReminderRepository) FindByIDPrefix(ctx context.Context, userID uint, prefix string) (*model.Reminder, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return nil, fmt.Errorf("reminder: %w", ErrNotFound)
	}

	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id LIKE ?", userID, prefix+"%").
		Limit(2).
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("find reminder: %w", err)
	}
	switch len(reminders) {
	case 0:
		return nil, fmt.Errorf("reminder %q: %w", prefix, ErrNotFound)
	case 1:
		return &reminders[0], nil
	default:
		return nil, fmt.Errorf("reminder %q: %w", prefix, ErrAmbiguousID)
	}
}

// ToggleCompleted flips the completion flag in place. Only that column
// is written, so concurrent changes to other fields survive.
func (r *ReminderRepository) ToggleCompleted(ctx context.Context, userID uint, id string) error {
	return r.UpdateFields(ctx, userID, id, map[string]interface{}{
		"completed": gorm.Expr("NOT completed"),
	})
}

// UpdateFields writes the given columns only. Time values must already be
// in UTC.
func (r *ReminderRepository) UpdateFields(ctx context.Context, userID uint, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a reminder for the given user.
func (r *ReminderRepository) Delete(ctx context.Context, userID uint, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.Reminder{})
	if res.Error != nil {
		return fmt.Errorf("delete reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListDueUnnotified returns open reminders of all users whose due date is
// at or before now and that were not announced yet.
func (r *ReminderRepository) ListDueUnnotified(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	var due []model.Reminder
	if err := r.db.WithContext(ctx).
		Where("completed = ? AND notified_at IS NULL AND due_date IS NOT NULL AND due_date <= ?", false, now.UTC()).
		Order("due_date ASC").
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return due, nil
}

// MarkNotified records that the occurrence due at due was announced. It is
// a no-op when the reminder was rescheduled or marked in the meantime.
func (r *ReminderRepository) MarkNotified(ctx context.Context, id string, due, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND notified_at IS NULL AND due_date = ?", id, due.UTC()).
		Update("notified_at", at.UTC())
	if res.Error != nil {
		return false, fmt.Errorf("mark reminder notified: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListContexts returns the distinct context tags the user has used.
func (r *ReminderRepository) ListContexts(ctx context.Context, userID uint) ([]string, error) {
	var contexts []string
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("user_id = ? AND context_type <> ''", userID).
		Distinct().
		Order("context_type ASC").
		Pluck("context_type", &contexts).Error; err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	return contexts, nil
}
