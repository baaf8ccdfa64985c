package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestWrapsDescription(t *testing.T) {
	got := Request("wedding RSVP")
	assert.True(t, strings.HasPrefix(got, "Description: wedding RSVP, on the basis of description"))
	assert.True(t, strings.HasSuffix(got, Prompt))
	for _, kind := range []string{"checkbox", "radiogroup", "radiogroupitem", "calendar", "digits"} {
		assert.Contains(t, got, kind)
	}
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	require.Error(t, err)
}
