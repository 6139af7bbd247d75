package models

// StoryView - то, что видит игрок на текущем шаге.
// Внутренние эффекты выбора (очки, тег, следующий узел) сюда не попадают.
type StoryView struct {
	Token          string       `json:"session_id"`
	Node           string       `json:"node"`
	Situation      string       `json:"situation"`
	IsTerminal     bool         `json:"is_end"`
	EndingCategory string       `json:"ending_category"`
	Choices        []ChoiceView `json:"choices"`
	ImageURL       string       `json:"image_url"`
	ImageSeed      int64        `json:"image_seed"`
	Score          int          `json:"score"`
	CurrentScore   int          `json:"current_score"`
}

// ChoiceView - выбор в том виде, в котором он отдается клиенту.
type ChoiceView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SessionProgress - снимок прогресса сессии только для чтения.
type SessionProgress struct {
	Token          string         `json:"session_id"`
	CurrentNode    string         `json:"current_node"`
	Score          int            `json:"score"`
	PathHistory    []string       `json:"path_history"`
	ChoiceHistory  []string       `json:"choice_history"`
	SentimentTally map[string]int `json:"sentiment_tally"`
}

// EngineStats - служебная статистика для /api/test.
type EngineStats struct {
	StoryNodesCount   int   `json:"story_nodes_count"`
	UserSessionsCount int64 `json:"user_sessions_count"`
}

// ChoiceRequest - тело запроса POST /api/choice.
type ChoiceRequest struct {
	ChoiceIndex *int `json:"choice_index" binding:"required"`
}

// AckResponse - подтверждение успешной команды.
type AckResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
