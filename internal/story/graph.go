// Package story загружает сюжетный граф и отвечает на запросы узлов.
// После загрузки граф не изменяется и безопасен для конкурентного чтения.
package story

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"mystic-forest-server/internal/models"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed stories/*.yaml
var storiesFS embed.FS

const defaultStoryPath = "stories/mystic_forest.yaml"

// Graph - неизменяемый сюжетный граф.
type Graph struct {
	title string
	nodes map[string]*models.StoryNode
}

// Lookup возвращает узел по ключу. Узел общий для всех вызовов, изменять его нельзя.
func (g *Graph) Lookup(key string) (*models.StoryNode, error) {
	node, ok := g.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: node %q", models.ErrInvalidNodeReference, key)
	}
	return node, nil
}

// Start возвращает ключ начального узла.
func (g *Graph) Start() string { return models.StartNodeKey }

// Title возвращает название истории.
func (g *Graph) Title() string { return g.title }

// Len возвращает количество узлов.
func (g *Graph) Len() int { return len(g.nodes) }

// Keys возвращает отсортированные ключи узлов.
func (g *Graph) Keys() []string {
	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadDefault загружает встроенную историю "Mystic Forest".
func LoadDefault() (*Graph, error) {
	data, err := storiesFS.ReadFile(defaultStoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded story: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// LoadFile загружает историю из YAML-файла на диске.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open story file %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load декодирует YAML, проверяет поля узлов и целостность графа.
func Load(r io.Reader) (*Graph, error) {
	var doc models.StoryDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: story document is empty", models.ErrInvalidStoryGraph)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidStoryGraph, err)
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}

	for key, node := range doc.Nodes {
		node.Key = key
		for i := range node.Choices {
			if node.Choices[i].Tag == "" {
				node.Choices[i].Tag = models.DefaultChoiceTag
			}
		}
	}

	return &Graph{title: doc.Title, nodes: doc.Nodes}, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateDocument(doc *models.StoryDocument) error {
	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidStoryGraph, err)
	}

	// Ключи сортируем, чтобы ошибка была детерминированной.
	keys := make([]string, 0, len(doc.Nodes))
	for k := range doc.Nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := doc.Nodes[key]
		if err := validate.Struct(node); err != nil {
			return fmt.Errorf("%w: node %q: %v", models.ErrInvalidStoryGraph, key, err)
		}
		if !node.IsTerminal() && node.EndingCategory != "" {
			return fmt.Errorf("%w: node %q has choices and an ending category", models.ErrInvalidStoryGraph, key)
		}
		for i, choice := range node.Choices {
			if _, ok := doc.Nodes[choice.NextNode]; !ok {
				return fmt.Errorf("%w: node %q choice %d points to unknown node %q",
					models.ErrInvalidStoryGraph, key, i, choice.NextNode)
			}
		}
	}

	if _, ok := doc.Nodes[models.StartNodeKey]; !ok {
		return fmt.Errorf("%w: start node %q is missing", models.ErrInvalidStoryGraph, models.StartNodeKey)
	}
	return nil
}

// Endings возвращает концовки в порядке ключей.
func (g *Graph) Endings() []*models.StoryNode {
	var endings []*models.StoryNode
	for _, key := range g.Keys() {
		if node := g.nodes[key]; node.IsTerminal() {
			endings = append(endings, node)
		}
	}
	return endings
}

// Unreachable возвращает отсортированные ключи узлов, до которых нельзя дойти от start.
func (g *Graph) Unreachable() []string {
	seen := map[string]bool{models.StartNodeKey: true}
	queue := []string{models.StartNodeKey}
	for len(queue) > 0 {
		node := g.nodes[queue[0]]
		queue = queue[1:]
		for _, c := range node.Choices {
			if !seen[c.NextNode] {
				seen[c.NextNode] = true
				queue = append(queue, c.NextNode)
			}
		}
	}

	var unreachable []string
	for _, key := range g.Keys() {
		if !seen[key] {
			unreachable = append(unreachable, key)
		}
	}
	return unreachable
}
