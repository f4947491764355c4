package client

import (
	"context"
	"net/http"

	"avocare/models"
)

func (c *Client) Chat(ctx context.Context, message string) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chatbot/chat", "/api/chatbot/chat", models.ChatRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ChatSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	var resp models.SuggestionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/chatbot/suggestions", "/api/chatbot/suggestions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}
