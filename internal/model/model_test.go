package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Less(t, PriorityLow.Rank(), PriorityNone.Rank())
	assert.Equal(t, PriorityNone.Rank(), Priority("bogus").Rank())
}

func TestParsePriorityAndSource(t *testing.T) {
	p, ok := ParsePriority(" HIGH ")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)

	s, ok := ParseSource("Voice")
	assert.True(t, ok)
	assert.Equal(t, SourceVoice, s)

	_, ok = ParseSource("fax")
	assert.False(t, ok)
}

func TestReminderHooks(t *testing.T) {
	due := time.Date(2024, 1, 15, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))
	r := &Reminder{DueDate: &due}

	require.NoError(t, r.BeforeCreate(nil))
	assert.Len(t, r.ID, 36)
	assert.Equal(t, r.ID[:8], r.ShortID())

	id := r.ID
	require.NoError(t, r.BeforeCreate(nil))
	assert.Equal(t, id, r.ID, "existing id kept")

	require.NoError(t, r.BeforeSave(nil))
	assert.Equal(t, time.UTC, r.DueDate.Location())
	assert.True(t, due.Equal(*r.DueDate))
	assert.True(t, r.HasDueDate())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ann", (&User{FirstName: " Ann ", Username: "ann"}).DisplayName())
	assert.Equal(t, "@ann", (&User{Username: "ann"}).DisplayName())
	assert.Equal(t, "there", (&User{}).DisplayName())
}
