// Package content renders backend-authored product copy for the client.
// Descriptions arrive as markdown and are sanitized before they reach any
// page, since the backend catalog is vendor-editable.
package content

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to sanitized HTML. Safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]string
}

// NewRenderer constructs a renderer with the UGC sanitization policy.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
		cache:  map[string]string{},
	}
}

// Render converts the markdown source to sanitized HTML. Results are cached
// by source, since catalog descriptions repeat across listing and detail.
func (r *Renderer) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}

	r.mu.RLock()
	cached, ok := r.cache[source]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("content: render markdown: %w", err)
	}
	out := r.policy.Sanitize(buf.String())

	r.mu.Lock()
	r.cache[source] = out
	r.mu.Unlock()
	return out, nil
}
