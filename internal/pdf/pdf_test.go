package pdf

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	html := `<p style="color:#333">100% done</p>`
	u := DataURL(html)

	require.True(t, strings.HasPrefix(u, "data:text/html;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:text/html;base64,"))
	require.NoError(t, err)
	assert.Equal(t, html, string(decoded))
}
