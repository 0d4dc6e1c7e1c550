package pages

import (
	"testing"

	"github.com/aescanero/stargazer/pkg/render"
	"github.com/aescanero/stargazer/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(web.Templates(), LayoutFile, Catalog()...)
	require.NoError(t, err)
	return r
}

func TestCatalogParsesEmbeddedTemplates(t *testing.T) {
	r := embeddedRenderer(t)
	assert.Equal(t, []string{"advice", "apod", "error", "index", "params"}, r.Pages())
}

func TestEmbeddedTemplates(t *testing.T) {
	r := embeddedRenderer(t)

	tests := []struct {
		name     string
		page     render.Page
		data     map[string]any
		contains []string
	}{
		{
			name:     "index",
			page:     Index,
			data:     map[string]any{"serverTime": "2024-03-09 07:05:03"},
			contains: []string{"2024-03-09 07:05:03", "/static/js/clock.js"},
		},
		{
			name:     "advice",
			page:     Advice,
			data:     map[string]any{"data": map[string]any{"slip": map[string]any{"id": float64(42), "advice": "Test advice."}}},
			contains: []string{"Test advice.", "Slip #42"},
		},
		{
			name:     "advice without slip",
			page:     Advice,
			data:     map[string]any{"data": map[string]any{}},
			contains: []string{"No advice came back"},
		},
		{
			name:     "apod image",
			page:     APOD,
			data:     map[string]any{"data": map[string]any{"title": "Nebula", "url": "http://example.com/img.jpg"}},
			contains: []string{"Nebula", "http://example.com/img.jpg", "<img"},
		},
		{
			name: "apod video",
			page: APOD,
			data: map[string]any{"data": map[string]any{
				"title":      "Eclipse",
				"url":        "https://www.youtube.com/embed/abc",
				"media_type": "video",
				"copyright":  "Jane Doe",
			}},
			contains: []string{"<iframe", "https://www.youtube.com/embed/abc", "Jane Doe"},
		},
		{
			name:     "params",
			page:     Params,
			data:     map[string]any{"name": "Ada"},
			contains: []string{`<span id="name">Ada</span>`},
		},
		{
			name:     "error",
			page:     Error,
			data:     map[string]any{"status": 502, "message": "The upstream service is unavailable."},
			contains: []string{"502", "The upstream service is unavailable."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := r.Render(tt.page.Name, tt.data)
			require.NoError(t, err)
			assert.Contains(t, html, "<!DOCTYPE html>")
			for _, want := range tt.contains {
				assert.Contains(t, html, want)
			}
		})
	}
}

func TestEmbeddedParamsEmptyName(t *testing.T) {
	r := embeddedRenderer(t)

	html, err := r.Render(Params.Name, map[string]any{"name": ""})
	require.NoError(t, err)
	assert.Contains(t, html, `<span id="name"></span>`)
	assert.NotContains(t, html, "None")
	assert.NotContains(t, html, "null")
}
