package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFullPage(t *testing.T) {
	t.Parallel()

	body := []byte(`<!DOCTYPE html>
<html>
<head><title>Acme Widgets</title></head>
<body>
  <h1>Welcome</h1>
  <p>Buy our widgets today.</p>
  <a href="https://acme.test/pricing">Pricing</a>
  <a href="/about">About</a>
  <a href="contact.html#team">Contact</a>
</body>
</html>`)

	page, err := New().Parse("https://acme.test/", body)
	require.NoError(t, err)

	require.Equal(t, "Acme Widgets", page.Title)
	require.Contains(t, page.Text, "Welcome")
	require.Contains(t, page.Text, "Buy our widgets today.")
	require.Equal(t, []string{
		"https://acme.test/pricing",
		"https://acme.test/about",
		"https://acme.test/contact.html",
	}, page.Links)
}

func TestParseTitleAppearsInText(t *testing.T) {
	t.Parallel()

	page, err := New().Parse("https://a.test/", []byte("<title>Spider Docs</title><p>body text</p>"))
	require.NoError(t, err)
	require.Equal(t, "Spider Docs", page.Title)
	require.Contains(t, page.Text, "Spider Docs")
	require.Contains(t, page.Text, "body text")
}

func TestParseMissingTitle(t *testing.T) {
	t.Parallel()

	page, err := New().Parse("https://a.test/", []byte("<p>no title here</p>"))
	require.NoError(t, err)
	require.Empty(t, page.Title)
	require.Equal(t, "no title here", page.Text)
}

func TestParseSkipsScriptAndStyle(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body>
<script>var hidden = "secret";</script>
<style>.cls { color: red; }</style>
<noscript>enable javascript</noscript>
<p>visible words</p>
</body></html>`)

	page, err := New().Parse("https://a.test/", body)
	require.NoError(t, err)
	require.Equal(t, "visible words", page.Text)
}

func TestParseLinkFiltering(t *testing.T) {
	t.Parallel()

	body := []byte(`<body>
<a href="mailto:sales@acme.test">mail</a>
<a href="javascript:void(0)">js</a>
<a href="ftp://files.acme.test/a">ftp</a>
<a href="">empty</a>
<a>no href</a>
<a href="https://ok.test/page#frag">ok</a>
<a href="https://ok.test/page">dup</a>
</body>`)

	page, err := New().Parse("https://a.test/", body)
	require.NoError(t, err)
	// Fragments are stripped, so the two anchors collapse to the same URL
	// and both entries are kept.
	require.Equal(t, []string{"https://ok.test/page", "https://ok.test/page"}, page.Links)
}

func TestParseCaseVariantsStayDistinct(t *testing.T) {
	t.Parallel()

	body := []byte(`<a href="https://A.test/Path">one</a><a href="https://a.test/path">two</a>`)
	page, err := New().Parse("https://a.test/", body)
	require.NoError(t, err)
	// No normalization beyond fragment stripping: case variants stay
	// distinct URLs.
	require.Equal(t, []string{"https://A.test/Path", "https://a.test/path"}, page.Links)
}

func TestParseMalformedMarkup(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body><p><b>unclosed <a href="/next">link`)
	page, err := New().Parse("https://a.test/", body)
	require.NoError(t, err)
	require.Contains(t, page.Text, "unclosed")
	require.Contains(t, page.Text, "link")
	require.Equal(t, []string{"https://a.test/next"}, page.Links)
}

func TestParsePlainTextBody(t *testing.T) {
	t.Parallel()

	page, err := New().Parse("https://a.test/", []byte("just plain words"))
	require.NoError(t, err)
	require.Empty(t, page.Title)
	require.Empty(t, page.Links)
	require.Equal(t, "just plain words", page.Text)
}

func TestParseEmptyBody(t *testing.T) {
	t.Parallel()

	page, err := New().Parse("https://a.test/", nil)
	require.NoError(t, err)
	require.Empty(t, page.Title)
	require.Empty(t, page.Text)
	require.Empty(t, page.Links)
}

func TestParseBadPageURLStillExtracts(t *testing.T) {
	t.Parallel()

	page, err := New().Parse("::not a url::", []byte(`<a href="https://ok.test/">ok</a><p>text</p>`))
	require.NoError(t, err)
	require.Equal(t, []string{"https://ok.test/"}, page.Links)
	require.Equal(t, "ok text", page.Text)
}
