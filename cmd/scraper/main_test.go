package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/regscraper/internal/config"
	"github.com/shanehull/regscraper/internal/index"
	"github.com/shanehull/regscraper/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "regscraper version "+version.Version+"\n", out)
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	public := filepath.Join(dir, "public")

	out, err := execute(t, "index", "--cache-dir", filepath.Join(dir, "db"), "--public-dir", public)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 0 announcements")

	for _, name := range []string{index.SearchDataFile, index.ManifestFile, index.MetadataFile} {
		_, err := os.Stat(filepath.Join(public, name))
		assert.NoError(t, err, name)
	}
}

func TestConflictingDateFlags(t *testing.T) {
	_, err := execute(t, "--yesterday", "--all")

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}
