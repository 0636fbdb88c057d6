package id

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManual(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	got := NewManual(now)

	assert.Regexp(t, regexp.MustCompile(`^manual-1718000000000-[0-9a-f]{8}$`), got)
	assert.True(t, IsManual(got))
}

func TestNewManual_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		v := NewManual(now)
		require.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestIsManual(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"manual-1718000000000-abcdef12", true},
		{"manual-1718000000000", true},
		{"1042", false},
		{"", false},
		{"xmanual-1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsManual(tt.id), "IsManual(%q)", tt.id)
	}
}

func TestManualCreatedAt(t *testing.T) {
	got, err := ManualCreatedAt("manual-1718000000000-abcdef12")
	require.NoError(t, err)
	assert.Equal(t, int64(1718000000000), got.UnixMilli())

	got, err = ManualCreatedAt("manual-1718000000001")
	require.NoError(t, err)
	assert.Equal(t, int64(1718000000001), got.UnixMilli())
}

func TestManualCreatedAt_Errors(t *testing.T) {
	_, err := ManualCreatedAt("1042")
	assert.Error(t, err)

	_, err = ManualCreatedAt("manual-notanumber")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}
