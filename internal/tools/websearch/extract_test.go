package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadableTextExtractsContent(t *testing.T) {
	doc := []byte(`<html><body>
		<h1>Title Here</h1>
		<p>First paragraph of text.</p>
		<ul><li>An item</li></ul>
	</body></html>`)

	text, err := readableText(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "Title Here")
	assert.Contains(t, text, "First paragraph of text.")
	assert.Contains(t, text, "An item")
}

func TestReadableTextSkipsScriptsAndChrome(t *testing.T) {
	doc := []byte(`<html><body>
		<nav><p>navigation links</p></nav>
		<script>var secret = "code";</script>
		<style>.cls { color: red }</style>
		<p>real content</p>
		<footer><p>copyright</p></footer>
	</body></html>`)

	text, err := readableText(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "real content")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "navigation")
	assert.NotContains(t, text, "copyright")
	assert.NotContains(t, text, "color: red")
}

func TestReadableTextCollapsesWhitespace(t *testing.T) {
	doc := []byte("<p>spaced\n\n\t  out   words</p>")

	text, err := readableText(doc)
	require.NoError(t, err)
	assert.Equal(t, "spaced out words", text)
}

func TestReadableTextEmptyDocument(t *testing.T) {
	text, err := readableText([]byte("<html><body><div>bare div text is skipped</div></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, text)
}
