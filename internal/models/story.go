package models

// StartNodeKey - ключ начального узла любой истории.
const StartNodeKey = "start"

// DefaultChoiceTag используется, если у выбора в файле истории не указан тег.
const DefaultChoiceTag = "neutral"

// StoryNode - узел сюжетного графа. Узел без выборов является концовкой.
type StoryNode struct {
	Key            string   `yaml:"-" json:"key"`
	Situation      string   `yaml:"situation" json:"situation" validate:"required"`
	ImagePrompt    string   `yaml:"image_prompt" json:"image_prompt"`
	Seed           int64    `yaml:"seed" json:"seed"`
	EndingCategory string   `yaml:"ending_category,omitempty" json:"ending_category,omitempty"`
	Choices        []Choice `yaml:"choices" json:"choices" validate:"dive"`
}

// IsTerminal сообщает, является ли узел концовкой.
func (n *StoryNode) IsTerminal() bool {
	return len(n.Choices) == 0
}

// Choice - переход из узла. Идентифицируется своим индексом в списке Choices.
type Choice struct {
	Text          string `yaml:"text" json:"text" validate:"required"`
	NextNode      string `yaml:"next_node" json:"next_node" validate:"required"`
	ScoreModifier int    `yaml:"score_modifier" json:"score_modifier"`
	Tag           string `yaml:"tag" json:"tag"`
}

// StoryDocument - корневая структура YAML-файла с историей.
type StoryDocument struct {
	Title string                `yaml:"title"`
	Nodes map[string]*StoryNode `yaml:"nodes" validate:"required,min=1,dive,required"`
}
