package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"mystic-forest-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateEmbedded(t *testing.T) {
	out, err := runCommand(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, `"Mystic Forest": 7 nodes, 4 endings`)
	assert.Contains(t, out, "ok")
}

func TestValidateStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.yaml")
	doc := "nodes:\n  start:\n    situation: A\n  lost:\n    situation: B\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := runCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "unreachable nodes: lost")

	_, err = runCommand(t, "validate", "--strict", path)
	assert.Error(t, err)
}

func TestValidateBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.yaml")
	doc := "nodes:\n  start:\n    situation: A\n    choices:\n      - text: Go\n        next_node: nowhere\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := runCommand(t, "validate", path)
	assert.ErrorIs(t, err, models.ErrInvalidStoryGraph)
}

func TestOutline(t *testing.T) {
	out, err := runCommand(t, "outline")
	require.NoError(t, err)
	assert.Contains(t, out, "start\n  0. Take the path that leads deeper into the forest -> deep_forest (+1, curious)")
	assert.Contains(t, out, "end_brave [ending: Brave Explorer]")
}
