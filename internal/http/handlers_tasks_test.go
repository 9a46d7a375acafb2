package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
)

func TestParseDue(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

	due, err := parseDue("2024-01-01", "09:00", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), due, "picker values are kept as wall clock")

	due, err = parseDue("", "", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 16, 30, 0, 0, time.UTC), due, "blank pickers take the local wall clock")

	due, err = parseDue("2024-01-01", "09:00:59", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), due)

	_, err = parseDue("01/01/2024", "09:00", now, loc)
	assert.ErrorIs(t, err, errInvalidDue)
	_, err = parseDue("2024-01-01", "9am", now, loc)
	assert.ErrorIs(t, err, errInvalidDue)
}

func TestFormatDueShowsStoredWallClock(t *testing.T) {
	s := &Server{opts: Options{Location: time.FixedZone("UTC-5", -5*60*60)}}
	// naive datetimes written by earlier deployments decode as UTC
	legacy := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01 09:00", s.formatDue(legacy))
	assert.Equal(t, "", s.formatDue(time.Time{}))
}

func TestActionFor(t *testing.T) {
	cases := map[domain.TaskStatus][2]string{
		domain.TaskStatusToDo:  {"Start Doing", "doing"},
		domain.TaskStatusDoing: {"Mark as Done", "done"},
		domain.TaskStatusDone:  {"Delete Task", "delete"},
	}
	for status, want := range cases {
		label, slug := actionFor(status)
		assert.Equal(t, want[0], label, status)
		assert.Equal(t, want[1], slug, status)
	}
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Task status updated to 'Doing'!", statusMessage(domain.TaskStatusDoing))
	assert.Equal(t, "Task marked as done!", statusMessage(domain.TaskStatusDone))
}
