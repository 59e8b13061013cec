// Package calendar exports reminders as iCalendar to-dos so they can be
// imported into an external calendar application.
package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"context-reminder/internal/model"
)

// ProductID identifies the generator in exported files.
const ProductID = "-//ContextReminder//Reminders//EN"

var ErrNothingToExport = errors.New("nothing to export")

// Export builds one VTODO per reminder. now is stamped as DTSTAMP.
func Export(reminders []model.Reminder, now time.Time) (*ical.Calendar, error) {
	if len(reminders) == 0 {
		return nil, ErrNothingToExport
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, r := range reminders {
		cal.Children = append(cal.Children, todo(r, now))
	}
	return cal, nil
}

func todo(r model.Reminder, now time.Time) *ical.Component {
	vtodo := ical.NewComponent(ical.CompToDo)
	vtodo.Props.SetText(ical.PropUID, UID(r))
	vtodo.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	vtodo.Props.SetText(ical.PropSummary, r.Title)

	if r.Description != "" {
		vtodo.Props.SetText(ical.PropDescription, r.Description)
	}
	if r.DueDate != nil {
		vtodo.Props.SetDateTime(ical.PropDue, r.DueDate.UTC())
	}
	if level := priorityLevel(r.Priority); level > 0 {
		prop := ical.NewProp(ical.PropPriority)
		prop.Value = strconv.Itoa(level)
		vtodo.Props.Set(prop)
	}
	if r.ContextType != "" {
		vtodo.Props.SetText(ical.PropCategories, r.ContextType)
	}
	if !r.CreatedAt.IsZero() {
		vtodo.Props.SetDateTime(ical.PropCreated, r.CreatedAt.UTC())
	}

	if r.Completed {
		vtodo.Props.SetText(ical.PropStatus, "COMPLETED")
		if !r.UpdatedAt.IsZero() {
			vtodo.Props.SetDateTime(ical.PropCompleted, r.UpdatedAt.UTC())
		}
	} else {
		vtodo.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	}
	return vtodo
}

// UID is the stable iCalendar identifier of a reminder.
func UID(r model.Reminder) string {
	return r.ID + "@context-reminder"
}

// priorityLevel maps to RFC 5545 PRIORITY: 1 highest, 9 lowest, 0 undefined.
func priorityLevel(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 5
	case model.PriorityLow:
		return 9
	default:
		return 0
	}
}

func Encode(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// Render exports and encodes in one step.
func Render(reminders []model.Reminder, now time.Time) ([]byte, error) {
	cal, err := Export(reminders, now)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
