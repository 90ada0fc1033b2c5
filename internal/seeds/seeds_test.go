package seeds

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := `# lead research targets
https://acme.test/

  https://widgets.test/pricing

# trailing comment
https://example.test/about
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://acme.test/",
		"https://widgets.test/pricing",
		"https://example.test/about",
	}, urls)
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n# only comments\n"), 0o644))

	urls, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	require.ErrorIs(t, err, fs.ErrNotExist)
}
