package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{7200, "02:00:00"},
		{7155, "01:59:15"},
		{360000, "100:00:00"},
		{-30, "00:00:00"}, // negative clamps to zero
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatClock(tt.seconds))
	}
}
