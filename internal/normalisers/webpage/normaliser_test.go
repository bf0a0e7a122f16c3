package webpage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswatch/watcher/internal/core/domain"
)

func testConfig() Config {
	return Config{
		NoiseSelectors: []string{".fusion-footer", "#side-header", "script", "nav"},
		MainContentID:  "main",
	}
}

func TestSupportedMIMETypes(t *testing.T) {
	n := New(testConfig())
	mimeTypes := n.SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Len(t, mimeTypes, 2)
}

func TestNormalise_Success(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/academics/",
		MIMEType: "text/html",
		Content: []byte(`<html><head><title>Academics</title></head>
<body><div id="main"><p>Degree programmes overview.</p></div></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, raw.URL, doc.URL)
	assert.Equal(t, domain.SourceWebsite, doc.SourceType)
	assert.Equal(t, "Academics", doc.Title)
	assert.Contains(t, doc.Content, "Degree programmes overview.")
	assert.False(t, doc.FetchedAt.IsZero())
}

func TestNormalise_NilPage(t *testing.T) {
	n := New(testConfig())

	doc, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_EmptyContent(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/empty",
		MIMEType: "text/html",
		Content:  []byte(`<html><body><div id="main"></div></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrNoContent)
	assert.Nil(t, doc)
}

func TestNormalise_NoiseRemoved(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/faculty",
		MIMEType: "text/html",
		Content: []byte(`<html><body><div id="main">
<nav>Home About Contact</nav>
<div class="fusion-footer">Copyright 2025</div>
<div id="side-header">Menu</div>
<script>var x = 1;</script>
<p>Faculty of Computing.</p>
</div></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "Faculty of Computing.")
	assert.NotContains(t, doc.Content, "Copyright 2025")
	assert.NotContains(t, doc.Content, "Home About Contact")
	assert.NotContains(t, doc.Content, "Menu")
	assert.NotContains(t, doc.Content, "var x")
}

func TestNormalise_MainContentPreferred(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/admissions",
		MIMEType: "text/html",
		Content: []byte(`<html><body>
<div class="sidebar">Unrelated sidebar text</div>
<div id="main"><p>Admission requirements.</p></div>
</body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "Admission requirements.")
	assert.NotContains(t, doc.Content, "Unrelated sidebar text")
}

func TestNormalise_MainContentFallback(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/research",
		MIMEType: "text/html",
		Content:  []byte(`<html><body><p>Research centres.</p></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "Research centres.")
}

func TestNormalise_PricingTableRewritten(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/fee-structure",
		MIMEType: "text/html",
		Content: []byte(`<html><body><div id="main">
<div class="fusion-pricing-table">
  <div class="panel-heading">BS Computer Science</div>
  <div class="panel-body">Rs. 50,000</div>
  <ul>
    <li class="list-group-item">Per semester</li>
    <li class="list-group-item">Merit scholarships available</li>
  </ul>
</div>
</div></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "=== FEE/PRICING DATA ===")
	assert.Contains(t, doc.Content, "Plans: BS Computer Science")
	assert.Contains(t, doc.Content, "Prices: Rs. 50,000")
	assert.Contains(t, doc.Content, "Details: Per semester, Merit scholarships available")
}

func TestNormalise_TableRewritten(t *testing.T) {
	n := New(testConfig())

	raw := &domain.RawPage{
		URL:      "https://example.edu/examinations",
		MIMEType: "text/html",
		Content: []byte(`<html><body><div id="main">
<table>
  <tr><th>Course</th><th>Credits</th></tr>
  <tr><td>Algorithms</td><td>3</td></tr>
</table>
</div></body></html>`),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "--- TABLE DATA ---")
	assert.Contains(t, doc.Content, "Course | Credits")
	assert.Contains(t, doc.Content, "Algorithms | 3")
}
