package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadExperts(t *testing.T) {
	c, err := LoadExperts()
	require.NoError(t, err)

	sarah, ok := c.Get("e1")
	require.True(t, ok)
	require.Equal(t, "Sarah Chen", sarah.Name)
	require.Equal(t, 150.0, sarah.HourlyRate)
	require.Equal(t, 50.0, sarah.BaseFee)

	elena, ok := c.Get("e3")
	require.True(t, ok)
	require.Equal(t, 180.0, elena.HourlyRate)
	require.Equal(t, 100.0, elena.BaseFee)

	_, ok = c.Get("missing")
	require.False(t, ok)
	require.Len(t, c.Search(""), 3)
}

func TestSearchExperts(t *testing.T) {
	c, err := LoadExperts()
	require.NoError(t, err)

	byName := c.Search("marcus")
	require.Len(t, byName, 1)
	require.Equal(t, "e2", byName[0].ID)

	bySpecialty := c.Search("CLOUDFLARE")
	require.Len(t, bySpecialty, 1)
	require.Equal(t, "e3", bySpecialty[0].ID)

	require.Empty(t, c.Search("cobol"))
}

func TestParseExpertsRejectsDuplicates(t *testing.T) {
	_, err := ParseExperts([]byte("experts:\n  - id: x\n    name: A\n  - id: x\n    name: B\n"))
	require.Error(t, err)

	_, err = ParseExperts([]byte("experts:\n  - name: NoID\n"))
	require.Error(t, err)
}
