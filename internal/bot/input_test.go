package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"context-reminder/internal/collection"
	"context-reminder/internal/model"
)

func TestParseFilterArgs(t *testing.T) {
	tests := []struct {
		args string
		want collection.FilterCriteria
	}{
		{"", collection.FilterCriteria{}},
		{"#Work", collection.FilterCriteria{ContextType: "work"}},
		{"!high src:voice all", collection.FilterCriteria{Priority: model.PriorityHigh, Source: model.SourceVoice, IncludeCompleted: true}},
		{"milk  !urgent bread", collection.FilterCriteria{SearchText: "milk !urgent bread"}},
		{"src:fax #", collection.FilterCriteria{SearchText: "src:fax #"}},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFilterArgs(tt.args))
		})
	}
}

func TestParseExplicitDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	date, clock, err := parseExplicitDate("2024-02-01", loc)
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), *date)
	assert.Nil(t, clock)

	date, clock, err = parseExplicitDate("2024-02-01 18:45", loc)
	require.NoError(t, err)
	require.NotNil(t, date)
	require.NotNil(t, clock)
	assert.Equal(t, 18, clock.Hour)
	assert.Equal(t, 45, clock.Minute)

	date, clock, err = parseExplicitDate("07:15", loc)
	require.NoError(t, err)
	assert.Nil(t, date)
	require.NotNil(t, clock)
	assert.Equal(t, 7, clock.Hour)

	for _, bad := range []string{"", "tomorrow", "2024-13-01", "2024-02-01 25:00", "a b c"} {
		_, _, err := parseExplicitDate(bad, loc)
		assert.Error(t, err, bad)
	}
}

func TestParsePriorityInput(t *testing.T) {
	p, ok := parsePriorityInput(btnHigh)
	assert.True(t, ok)
	assert.Equal(t, model.PriorityHigh, p)

	p, ok = parsePriorityInput("LOW")
	assert.True(t, ok)
	assert.Equal(t, model.PriorityLow, p)

	_, ok = parsePriorityInput("whenever")
	assert.False(t, ok)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Buy milk", shortTitle("buy milk", 24))
	assert.Equal(t, "Abcd…", shortTitle("abcdefgh", 5))
	assert.Equal(t, "Line one line two", shortTitle("line one\nline two", 40))
}

func TestContextLabel(t *testing.T) {
	assert.Equal(t, "🛒 Shopping", contextLabel("shopping"))
	assert.Equal(t, "🏷️ Garden &amp; yard", contextLabel("garden & yard"))
}
