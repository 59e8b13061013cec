package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"context-reminder/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "reminders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user, err := NewUserRepository(db).UpsertFromTelegram(context.Background(), telegramID, "Ann", "", "ann")
	require.NoError(t, err)
	return user
}

func TestReminderRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	due := time.Date(2024, 1, 15, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))
	r := &model.Reminder{UserID: user.ID, Title: "Call mom", DueDate: &due, Priority: model.PriorityHigh}
	require.NoError(t, repo.Create(ctx, r))
	require.Len(t, r.ID, 36)

	got, err := repo.FindByID(ctx, user.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Call mom", got.Title)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))

	require.NoError(t, repo.ToggleCompleted(ctx, user.ID, r.ID))
	reloaded, err := repo.FindByID(ctx, user.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed)
	assert.Equal(t, "Call mom", reloaded.Title)

	require.NoError(t, repo.UpdateFields(ctx, user.ID, r.ID, map[string]interface{}{"title": "Call dad", "due_date": nil}))
	reloaded, err = repo.FindByID(ctx, user.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Call dad", reloaded.Title)
	assert.Nil(t, reloaded.DueDate)
	assert.True(t, reloaded.Completed)

	assert.ErrorIs(t, repo.ToggleCompleted(ctx, user.ID+1, r.ID), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateFields(ctx, user.ID, "missing", map[string]interface{}{"title": "x"}), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, user.ID, r.ID))
	_, err = repo.FindByID(ctx, user.ID, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID, r.ID), ErrNotFound)
}

func TestReminderRepositoryScopesByUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	alice := newTestUser(t, db, 1)
	bob := newTestUser(t, db, 2)

	r := &model.Reminder{UserID: alice.ID, Title: "secret"}
	require.NoError(t, repo.Create(ctx, r))

	_, err := repo.FindByID(ctx, bob.ID, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByIDPrefix(ctx, bob.ID, r.ShortID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, bob.ID, r.ID), ErrNotFound)

	list, err := repo.ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReminderRepositoryFindByIDPrefix(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	require.NoError(t, repo.Create(ctx, &model.Reminder{ID: "aaaa1111-0000-0000-0000-000000000000", UserID: user.ID, Title: "one"}))
	require.NoError(t, repo.Create(ctx, &model.Reminder{ID: "aaaa2222-0000-0000-0000-000000000000", UserID: user.ID, Title: "two"}))

	got, err := repo.FindByIDPrefix(ctx, user.ID, "AAAA1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)

	_, err = repo.FindByIDPrefix(ctx, user.ID, "aaaa")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	for _, prefix := range []string{"", "  ", "%", "aa_a", "ffff"} {
		_, err = repo.FindByIDPrefix(ctx, user.ID, prefix)
		assert.ErrorIs(t, err, ErrNotFound, prefix)
	}
}

func TestReminderRepositoryListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &model.Reminder{
			UserID:    user.ID,
			Title:     title,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestReminderRepositoryDueAndNotified(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	alice := newTestUser(t, db, 1)
	bob := newTestUser(t, db, 2)

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	exact := now
	future := now.Add(time.Hour)
	// same instant as past, written in another zone
	pastOtherZone := past.In(time.FixedZone("PLUS3", 3*3600))

	items := []*model.Reminder{
		{UserID: alice.ID, Title: "past", DueDate: &past},
		{UserID: bob.ID, Title: "exact", DueDate: &exact},
		{UserID: alice.ID, Title: "future", DueDate: &future},
		{UserID: alice.ID, Title: "undated"},
		{UserID: alice.ID, Title: "done", DueDate: &past, Completed: true},
		{UserID: bob.ID, Title: "zoned", DueDate: &pastOtherZone},
	}
	for _, r := range items {
		require.NoError(t, repo.Create(ctx, r))
	}

	due, err := repo.ListDueUnnotified(ctx, now)
	require.NoError(t, err)
	titles := make([]string, 0, len(due))
	for _, r := range due {
		titles = append(titles, r.Title)
	}
	assert.ElementsMatch(t, []string{"past", "exact", "zoned"}, titles)

	ok, err := repo.MarkNotified(ctx, items[0].ID, past, now)
	require.NoError(t, err)
	assert.True(t, ok)

	due, err = repo.ListDueUnnotified(ctx, now)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	got, err := repo.FindByID(ctx, alice.ID, items[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, now.Equal(*got.NotifiedAt))
}

func TestMarkNotifiedSkipsRescheduledReminder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)
	r := &model.Reminder{UserID: user.ID, Title: "standup", DueDate: &due}
	require.NoError(t, repo.Create(ctx, r))

	later := now.Add(2 * time.Hour)
	require.NoError(t, repo.UpdateFields(ctx, user.ID, r.ID, map[string]interface{}{"due_date": later}))

	ok, err := repo.MarkNotified(ctx, r.ID, due, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, user.ID, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NotifiedAt)

	ok, err = repo.MarkNotified(ctx, r.ID, later, later)
	require.NoError(t, err)
	assert.True(t, ok)

	// already marked
	ok, err = repo.MarkNotified(ctx, r.ID, later, later.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleCompletedKeepsNotifiedAt(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)
	r := &model.Reminder{UserID: user.ID, Title: "pay rent", DueDate: &due}
	require.NoError(t, repo.Create(ctx, r))

	ok, err := repo.MarkNotified(ctx, r.ID, due, now)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.ToggleCompleted(ctx, user.ID, r.ID))
	require.NoError(t, repo.ToggleCompleted(ctx, user.ID, r.ID))

	got, err := repo.FindByID(ctx, user.ID, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	require.NotNil(t, got.NotifiedAt)
	assert.True(t, now.Equal(*got.NotifiedAt))

	pending, err := repo.ListDueUnnotified(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReminderRepositoryListContexts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewReminderRepository(db)
	user := newTestUser(t, db, 1)

	for _, c := range []string{"work", "home", "work", ""} {
		require.NoError(t, repo.Create(ctx, &model.Reminder{UserID: user.ID, Title: "x", ContextType: c}))
	}

	contexts, err := repo.ListContexts(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, contexts)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.UpsertFromTelegram(ctx, 42, "Ann", "Lee", "ann")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	updated, err := repo.UpsertFromTelegram(ctx, 42, "Anna", "Lee", "ann")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	byTelegram, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Anna", byTelegram.FirstName)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), byID.TelegramID)

	_, err = repo.FindByTelegramID(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpsertFromTelegram(ctx, 7, "Bo", "", "")
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
