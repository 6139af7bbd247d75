package story

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mystic-forest-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	g, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "Mystic Forest", g.Title())
	assert.Equal(t, 7, g.Len())
	assert.Equal(t, []string{"clearing", "deep_forest", "end_brave", "end_cautious", "end_magic", "end_wise", "start"}, g.Keys())

	start, err := g.Lookup(g.Start())
	require.NoError(t, err)
	assert.Equal(t, "start", start.Key)
	assert.False(t, start.IsTerminal())
	require.Len(t, start.Choices, 2)
	assert.Equal(t, models.Choice{
		Text:          "Take the path that leads deeper into the forest",
		NextNode:      "deep_forest",
		ScoreModifier: 1,
		Tag:           "curious",
	}, start.Choices[0])
	assert.Equal(t, int64(12345), start.Seed)

	end, err := g.Lookup("end_brave")
	require.NoError(t, err)
	assert.True(t, end.IsTerminal())
	assert.Equal(t, "Brave Explorer", end.EndingCategory)

	// Граф без висячих ребер, у концовок есть категория.
	for _, key := range g.Keys() {
		node, err := g.Lookup(key)
		require.NoError(t, err)
		for _, c := range node.Choices {
			_, err := g.Lookup(c.NextNode)
			assert.NoError(t, err, "dangling edge %s -> %s", key, c.NextNode)
		}
		if node.IsTerminal() {
			assert.NotEmpty(t, node.EndingCategory, key)
		}
	}
}

func TestLookupUnknownNode(t *testing.T) {
	g, err := LoadDefault()
	require.NoError(t, err)

	node, err := g.Lookup("nowhere")
	assert.Nil(t, node)
	assert.ErrorIs(t, err, models.ErrInvalidNodeReference)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "empty document",
			doc:     "",
			wantMsg: "empty",
		},
		{
			name: "dangling next node",
			doc: `
nodes:
  start:
    situation: Hi
    choices:
      - text: Go
        next_node: missing
`,
			wantMsg: `unknown node "missing"`,
		},
		{
			name: "missing start",
			doc: `
nodes:
  intro:
    situation: Hi
`,
			wantMsg: "start node",
		},
		{
			name: "ending category on non terminal node",
			doc: `
nodes:
  start:
    situation: Hi
    ending_category: Nope
    choices:
      - text: Go
        next_node: start
`,
			wantMsg: "ending category",
		},
		{
			name: "choice without text",
			doc: `
nodes:
  start:
    situation: Hi
    choices:
      - next_node: start
`,
			wantMsg: "Text",
		},
		{
			name: "unknown field",
			doc: `
nodes:
  start:
    situation: Hi
    is_end: true
`,
			wantMsg: "is_end",
		},
		{
			name:    "no nodes",
			doc:     "title: Empty\n",
			wantMsg: "Nodes",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Load(strings.NewReader(tc.doc))
			assert.Nil(t, g)
			require.ErrorIs(t, err, models.ErrInvalidStoryGraph)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoadDefaultsTagAndAllowsCycles(t *testing.T) {
	doc := `
nodes:
  start:
    situation: A loop
    choices:
      - text: Again
        next_node: start
      - text: Leave
        next_node: out
        score_modifier: -2
  out:
    situation: Bye
`
	g, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	start, err := g.Lookup("start")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChoiceTag, start.Choices[0].Tag)
	assert.Equal(t, -2, start.Choices[1].ScoreModifier)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes:\n  start:\n    situation: Alone\n"), 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEndingsAndReachability(t *testing.T) {
	g, err := LoadDefault()
	require.NoError(t, err)

	var categories []string
	for _, e := range g.Endings() {
		categories = append(categories, e.EndingCategory)
	}
	assert.Equal(t, []string{"Brave Explorer", "Cautious Traveler", "Forest Guardian", "Forest Sage"}, categories)
	assert.Empty(t, g.Unreachable())

	doc := `
nodes:
  start:
    situation: Door
    choices:
      - text: Open
        next_node: room
  room:
    situation: Room
  attic:
    situation: Nobody comes here
    choices:
      - text: Down
        next_node: room
`
	g, err = Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"attic"}, g.Unreachable())
}
