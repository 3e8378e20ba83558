package rubocopast

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liijunwei/rubocop-ast/parser"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".rubocop.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
TargetRubyVersion: 3.1
AllDiagnosticsFatal: true
Include:
  - "app/**/*.rb"
  - "lib/**/*.rb"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, parser.Ruby31, cfg.TargetRubyVersion)
	assert.True(t, cfg.AllDiagnosticsFatal)
	assert.Empty(t, cmp.Diff([]string{"app/**/*.rb", "lib/**/*.rb"}, cfg.Include))
}

func TestLoadConfigMissingFileIsDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(DefaultConfig(), cfg))
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "TargetRubyVersion: 2.7\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, parser.Ruby27, cfg.TargetRubyVersion)
	assert.False(t, cfg.AllDiagnosticsFatal)
	assert.Equal(t, []string{"**/*.rb"}, cfg.Include)
}

func TestLoadConfigUnknownVersion(t *testing.T) {
	path := writeConfig(t, "TargetRubyVersion: 1.8\n")
	_, err := LoadConfig(path)
	var unknown *parser.UnknownVersionError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), path)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "TargetRubyVersion: [\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestConfigProcessor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.rb"), []byte("x = 1\n"), 0o644))

	cfg := DefaultConfig()
	files, err := FindSources(dir, cfg.Include)
	require.NoError(t, err)
	require.Equal(t, []string{"app.rb"}, files)

	p := cfg.Processor()
	require.NotNil(t, p.Resolver)
	assert.Equal(t, DefaultRubyVersion, p.RubyVersion)

	sources, err := p.Process(context.Background(), filepath.Join(dir, "app.rb"))
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.True(t, sources[0].ValidSyntax())
}
