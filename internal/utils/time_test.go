package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-meetups/internal/utils"
)

func TestParseEventDateLayouts(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-01T10:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00:30", time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC)},
		{"2024-01-01 10:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01 10:00:30", time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC)},
		{"2024-01-01T10:00:00Z", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"  2024-01-01T10:00  ", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := utils.ParseEventDate(tc.input)
		assert.NoError(t, err, "input: %q", tc.input)
		assert.True(t, got.Equal(tc.want), "input: %q, got: %v", tc.input, got)
	}
}

func TestParseEventDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "next tuesday", "2024-13-01T10:00", "01/02/2024"} {
		_, err := utils.ParseEventDate(input)
		assert.Error(t, err, "input: %q", input)
	}
}

func TestSplitTechnologies(t *testing.T) {
	assert.Equal(t, []string{"Go", "Postgres"}, utils.SplitTechnologies("Go, Postgres"))
	assert.Equal(t, []string{"Go"}, utils.SplitTechnologies("  Go , , "))
	assert.Empty(t, utils.SplitTechnologies(""))
	assert.Empty(t, utils.SplitTechnologies(" , ,"))
}
