package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"context-reminder/internal/model"
)

func TestExportEmpty(t *testing.T) {
	_, err := Export(nil, time.Now())
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = Render([]model.Reminder{}, time.Now())
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestRenderRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 16, 17, 0, 0, 0, time.FixedZone("EST", -5*3600))

	reminders := []model.Reminder{
		{
			ID:          "11111111-2222-3333-4444-555555555555",
			Title:       "Buy milk, eggs",
			Description: "from the corner shop",
			DueDate:     &due,
			Priority:    model.PriorityHigh,
			ContextType: "shopping",
			CreatedAt:   now.Add(-time.Hour),
		},
		{
			ID:        "66666666-2222-3333-4444-555555555555",
			Title:     "Read book",
			Completed: true,
			UpdatedAt: now,
		},
	}

	data, err := Render(reminders, now)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)

	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, ProductID, prodID)

	todos := cal.Children
	require.Len(t, todos, 2)
	for _, c := range todos {
		assert.Equal(t, ical.CompToDo, c.Name)
	}

	first := todos[0]
	uid, err := first.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555@context-reminder", uid)

	summary, err := first.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk, eggs", summary)

	gotDue, err := first.Props.DateTime(ical.PropDue, time.UTC)
	require.NoError(t, err)
	assert.True(t, due.Equal(gotDue))

	assert.Equal(t, "1", first.Props.Get(ical.PropPriority).Value)
	assert.Equal(t, "NEEDS-ACTION", first.Props.Get(ical.PropStatus).Value)
	assert.Equal(t, "shopping", first.Props.Get(ical.PropCategories).Value)

	second := todos[1]
	assert.Equal(t, "COMPLETED", second.Props.Get(ical.PropStatus).Value)
	assert.Nil(t, second.Props.Get(ical.PropDue))
	assert.Nil(t, second.Props.Get(ical.PropPriority))
	assert.NotNil(t, second.Props.Get(ical.PropCompleted))
}

func TestPriorityLevel(t *testing.T) {
	assert.Equal(t, 1, priorityLevel(model.PriorityHigh))
	assert.Equal(t, 5, priorityLevel(model.PriorityMedium))
	assert.Equal(t, 9, priorityLevel(model.PriorityLow))
	assert.Equal(t, 0, priorityLevel(model.PriorityNone))
}
