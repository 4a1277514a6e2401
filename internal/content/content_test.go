package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bloomfield.org/bloom-web/internal/content"
)

func TestRenderConvertsMarkdown(t *testing.T) {
	t.Parallel()

	r := content.NewRenderer()
	out, err := r.Render("A **hardy** plant.\n\n- bright light\n- weekly water")
	require.NoError(t, err)
	require.Contains(t, out, "<strong>hardy</strong>")
	require.Contains(t, out, "<li>bright light</li>")
}

func TestRenderStripsScripts(t *testing.T) {
	t.Parallel()

	r := content.NewRenderer()
	out, err := r.Render("Care tips<script>alert(1)</script> here.")
	require.NoError(t, err)
	require.NotContains(t, out, "<script")
	require.Contains(t, out, "Care tips")
}

func TestRenderEmptySource(t *testing.T) {
	t.Parallel()

	r := content.NewRenderer()
	out, err := r.Render("")
	require.NoError(t, err)
	require.Empty(t, out)
}
