package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kk-code-lab/mdblocks"
	"github.com/kk-code-lab/mdblocks/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	// Keep the user's config file out of the tests.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeBlocks(t *testing.T, out string) []map[string]any {
	t.Helper()
	var blocks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &blocks), out)
	return blocks
}

func TestConvertFromStdin(t *testing.T) {
	res := run(t, "# Hi\n\ntext", "convert")
	require.NoError(t, res.err)
	blocks := decodeBlocks(t, res.stdout)
	require.Len(t, blocks, 2)
	assert.Equal(t, "heading_1", blocks[0]["type"])
	assert.Equal(t, "paragraph", blocks[1]["type"])
}

func TestRootDefaultsToConvert(t *testing.T) {
	path := writeFile(t, t.TempDir(), "doc.md", "---")
	res := run(t, "", path)
	require.NoError(t, res.err)
	assert.JSONEq(t, `[{"object":"block","type":"divider","divider":{}}]`, res.stdout)
}

func TestConvertYAML(t *testing.T) {
	res := run(t, "- item", "convert", "--format", "yaml")
	require.NoError(t, res.err)
	var blocks []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "bulleted_list_item", blocks[0]["type"])
}

func TestConvertMultipleFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var args []string
	for i, content := range []string{"# one", "- two", "> three", "---"} {
		args = append(args, writeFile(t, dir, string(rune('a'+i))+".md", content))
	}

	res := run(t, "", append([]string{"convert", "--indent", "  "}, args...)...)
	require.NoError(t, res.err)

	var results []struct {
		File   string           `json:"file"`
		Blocks []map[string]any `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &results))
	require.Len(t, results, 4)
	wantTypes := []string{"heading_1", "bulleted_list_item", "quote", "divider"}
	for i, r := range results {
		assert.Equal(t, args[i], r.File)
		require.Len(t, r.Blocks, 1)
		assert.Equal(t, wantTypes[i], r.Blocks[0]["type"])
	}
}

func TestConvertFlagsOverrideConfigAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "normalize_languages: true\nmax_heading_level: 2\n")
	t.Setenv("MDBLOCKS_CODE_BLOCK_DEFAULT_LANGUAGE", "go")

	res := run(t, "### deep\n\n```py\nx\n```\n\n```\ny\n```", "convert", "--config", cfgPath, "--max-heading-level", "1")
	require.NoError(t, res.err)
	blocks := decodeBlocks(t, res.stdout)
	require.Len(t, blocks, 3)
	assert.Equal(t, "heading_1", blocks[0]["type"])
	assert.Equal(t, "python", blocks[1]["code"].(map[string]any)["language"])
	assert.Equal(t, "go", blocks[2]["code"].(map[string]any)["language"])
}

func TestConvertInvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "config.yaml", "max_heading_level: 9\n")
	res := run(t, "x", "convert", "--config", cfgPath)
	assert.Error(t, res.err)
}

func TestConvertRejectsBinaryInput(t *testing.T) {
	res := run(t, "a\x00b", "convert")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, fs.ErrBinaryInput)
}

func TestConvertRejectsOversizedInput(t *testing.T) {
	res := run(t, strings.Repeat("a", 10), "convert", "--max-input-bytes", "4")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, mdblocks.ErrResourceLimitExceeded)
}

func TestConvertUnknownFormat(t *testing.T) {
	res := run(t, "x", "convert", "--format", "xml")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unknown format")
}

func TestConvertWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	res := run(t, "hello", "convert", "-o", out)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	blocks := decodeBlocks(t, string(data))
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0]["type"])
}

func TestVerboseLogsToStderr(t *testing.T) {
	res := run(t, "#### deep", "convert", "--verbose")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "converted markdown")
	assert.Contains(t, res.stderr, "converted file")
	assert.NotContains(t, res.stdout, "converted")
}

func TestDebugEnvEnablesLogging(t *testing.T) {
	t.Setenv(debugEnv, "1")
	res := run(t, "x", "convert")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "converted file")
}

func TestQuietByDefault(t *testing.T) {
	res := run(t, "x", "convert")
	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)
}

func TestPreviewPlain(t *testing.T) {
	res := run(t, "# Title\n\n- a\n  - b", "preview", "--plain")
	require.NoError(t, res.err)
	assert.Equal(t, "H1 Title\n• a\n  • b\n", res.stdout)
}

func TestLanguages(t *testing.T) {
	res := run(t, "", "languages")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	assert.Equal(t, mdblocks.Languages(), lines)
	assert.Contains(t, lines, "python")
}

func TestVersion(t *testing.T) {
	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "mdblocks dev\n", res.stdout)
}

type failingCloser struct {
	bytes.Buffer
}

func (*failingCloser) Close() error {
	return errors.New("disk full")
}

func TestConvertReportsOutputCloseError(t *testing.T) {
	dest := &failingCloser{}
	orig := openOutput
	openOutput = func(string) (io.WriteCloser, error) { return dest, nil }
	t.Cleanup(func() { openOutput = orig })

	res := run(t, "hello", "convert", "--output", "out.json")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "disk full")
	assert.Contains(t, dest.String(), `"paragraph"`)
}

func TestConvertOutputDirectoryMissing(t *testing.T) {
	res := run(t, "hello", "convert", "--output", filepath.Join(t.TempDir(), "missing", "out.json"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to create output file")
}
