package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "Listener"},
		{10, "Listener"},
		{11, "Hummer"},
		{51, "Performer"},
		{201, "Headliner"},
		{1000, "Legend"},
	}
	for _, tt := range tests {
		got, _ := Level(tt.points)
		assert.Equal(t, tt.want, got, "points=%d", tt.points)
	}
}
