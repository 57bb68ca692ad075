package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/core"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Priority
		wantErr bool
	}{
		{"low", core.PriorityLow, false},
		{"normal", core.PriorityNormal, false},
		{"HIGH", core.PriorityHigh, false},
		{"urgent", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePriority(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScope(t *testing.T) {
	scope, err := parseScope("")
	require.NoError(t, err)
	assert.Nil(t, scope)

	scope, err = parseScope("1, 42,7")
	require.NoError(t, err)
	assert.Equal(t, []core.ID{1, 42, 7}, scope)

	_, err = parseScope("1,abc")
	require.Error(t, err)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeTypeFor("notes.pdf"))
	assert.Equal(t, "application/octet-stream", mimeTypeFor("mystery.unknownext"))
}
