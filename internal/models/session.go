package models

import "time"

// Session хранит прогресс одного игрока. Ключ - непрозрачный токен.
type Session struct {
	Token          string         `json:"token" db:"token"`
	CurrentNode    string         `json:"current_node" db:"current_node"`
	Score          int            `json:"score" db:"score"`
	PathHistory    []string       `json:"path_history" db:"path_history"`
	ChoiceHistory  []string       `json:"choice_history" db:"choice_history"`
	SentimentTally map[string]int `json:"sentiment_tally" db:"sentiment_tally"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// NewSession возвращает сессию в начальном состоянии.
func NewSession(token string) *Session {
	now := time.Now().UTC()
	s := &Session{
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Reset()
	return s
}

// Reset возвращает игровые поля к значениям по умолчанию. Токен и CreatedAt не меняются.
func (s *Session) Reset() {
	s.CurrentNode = StartNodeKey
	s.Score = 0
	s.PathHistory = []string{StartNodeKey}
	s.ChoiceHistory = []string{}
	s.SentimentTally = map[string]int{}
}

// Clone делает глубокую копию сессии.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.PathHistory = append([]string(nil), s.PathHistory...)
	c.ChoiceHistory = append([]string{}, s.ChoiceHistory...)
	c.SentimentTally = make(map[string]int, len(s.SentimentTally))
	for tag, count := range s.SentimentTally {
		c.SentimentTally[tag] = count
	}
	return &c
}
