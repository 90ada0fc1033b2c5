package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{name: "mixed case", text: "Hello, World!", want: []string{"hello", "world"}},
		{name: "digits split runs", text: "Go2Go v1.21", want: []string{"go", "go", "v"}},
		{name: "punctuation only", text: "42 --- !!!", want: nil},
		{name: "non ascii separates", text: "café menu", want: []string{"caf", "menu"}},
		{name: "empty", text: "", want: nil},
		{name: "trailing run", text: "end token", want: []string{"end", "token"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Tokenize(tc.text))
		})
	}
}

func TestIndexAddIsIdempotent(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "hello hello world")
	ix.Add("https://a.test/", "hello hello world")

	require.Equal(t, []string{"https://a.test/"}, ix.Lookup("hello"))
	require.Equal(t, []string{"https://a.test/"}, ix.Lookup("world"))
	require.Equal(t, 2, ix.Terms())
	require.Equal(t, 1, ix.Docs())
}

func TestIndexLookupCaseInsensitive(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "Hello out there")

	require.Equal(t, ix.Lookup("hello"), ix.Lookup("Hello"))
	require.Equal(t, []string{"https://a.test/"}, ix.Lookup("HELLO"))
}

func TestIndexLookupUnknownToken(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "hello")
	require.Empty(t, ix.Lookup("absent"))
}

func TestIndexLookupPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "shared term")
	ix.Add("https://b.test/", "shared term")
	ix.Add("https://c.test/", "shared term")

	require.Equal(t, []string{"https://a.test/", "https://b.test/", "https://c.test/"}, ix.Lookup("shared"))
}

func TestIndexLookupReturnsCopy(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "hello")

	got := ix.Lookup("hello")
	got[0] = "mutated"
	require.Equal(t, []string{"https://a.test/"}, ix.Lookup("hello"))
}

func TestIndexRankedSearch(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "spider")
	ix.Add("https://b.test/", "spider spider hello")

	// B matches both query terms and outranks A, which matches one.
	require.Equal(t, []string{"https://b.test/", "https://a.test/"}, ix.Search("spider hello"))
}

func TestIndexRankedSearchTiesKeepFirstScoredOrder(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "common word")
	ix.Add("https://b.test/", "common word")

	require.Equal(t, []string{"https://a.test/", "https://b.test/"}, ix.Search("common word"))
}

func TestIndexSearchScoredReportsMatchCounts(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "spider")
	ix.Add("https://b.test/", "spider hello")

	want := []Result{
		{URL: "https://b.test/", Score: 2},
		{URL: "https://a.test/", Score: 1},
	}
	require.Equal(t, want, ix.SearchScored("spider hello"))
	require.Empty(t, ix.SearchScored("zebra"))
}

func TestIndexSearchIgnoresUnknownTerms(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "hello world")

	require.Equal(t, []string{"https://a.test/"}, ix.Search("hello zebra"))
	require.Empty(t, ix.Search("zebra"))
	require.Empty(t, ix.Search(""))
}

func TestIndexSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.Add("https://a.test/", "spider crawls the web")
	ix.Add("https://b.test/", "spider spider hello")
	ix.Add("https://c.test/", "")

	var buf bytes.Buffer
	require.NoError(t, ix.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	require.Equal(t, ix.Terms(), loaded.Terms())
	require.Equal(t, ix.Docs(), loaded.Docs())
	require.Equal(t, ix.Lookup("spider"), loaded.Lookup("spider"))
	require.Equal(t, ix.Search("spider hello"), loaded.Search("spider hello"))
}

func TestIndexLoadRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	_, err := Load(bytes.NewReader([]byte("{not json")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode index")
}
