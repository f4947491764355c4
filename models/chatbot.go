package models

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Suggestion - быстрый вопрос для чат-бота
type Suggestion struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Icon     string `json:"icon"`
}

type SuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Success     bool         `json:"success"`
}
