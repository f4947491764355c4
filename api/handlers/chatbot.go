package handlers

import (
	"net/http"
	"strings"
	"time"

	"avocare/models"

	"github.com/gin-gonic/gin"
)

var chatSuggestions = []models.Suggestion{
	{ID: 1, Category: "Disease", Question: "How do I identify root rot?", Icon: "leaf"},
	{ID: 2, Category: "Fertilization", Question: "Best fertilizer for avocados?", Icon: "flask"},
	{ID: 3, Category: "Harvesting", Question: "When to harvest avocados?", Icon: "calendar"},
	{ID: 4, Category: "Pests", Question: "Common avocado pests?", Icon: "bug"},
	{ID: 5, Category: "Disease", Question: "How to prevent anthracnose?", Icon: "shield"},
	{ID: 6, Category: "Irrigation", Question: "Watering schedule for avocados?", Icon: "water"},
	{ID: 7, Category: "Soil", Question: "Best soil pH for avocados?", Icon: "beaker"},
}

// cannedAnswers - ответы по ключевым словам вместо языковой модели
var cannedAnswers = []struct {
	keyword string
	answer  string
}{
	{"root rot", "Root rot shows as wilting, small pale leaves and dieback even when the soil is moist. Improve drainage, avoid overwatering and apply phosphonate treatments."},
	{"fertiliz", "Feed avocados with a balanced citrus or avocado fertilizer rich in nitrogen and zinc, split into small doses from late winter to early autumn."},
	{"harvest", "Avocados do not ripen on the tree. Pick a test fruit when it reaches full size and let it soften at room temperature for a week."},
	{"pest", "Common pests include thrips, persea mites and borers. Monitor leaf undersides and use targeted oils or biological controls."},
	{"anthracnose", "Prevent anthracnose by pruning for airflow, removing dead wood and fallen fruit, and applying copper sprays before wet weather."},
	{"water", "Water deeply once or twice a week, letting the top few centimetres of soil dry between waterings. Young trees need more frequent watering."},
	{"ph", "Avocados prefer slightly acidic, well drained soil with a pH between 6.0 and 6.5."},
}

const defaultAnswer = "I can help with avocado cultivation, pests, diseases, fertilization, irrigation and harvesting. Could you tell me more about your question?"

func (b *Backend) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ChatResponse{Success: false, Error: "No JSON data provided"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, models.ChatResponse{Success: false, Error: "Message cannot be empty"})
		return
	}

	if b.ChatDelay > 0 {
		select {
		case <-time.After(b.ChatDelay):
		case <-c.Request.Context().Done():
			return
		}
	}

	answer := defaultAnswer
	lower := strings.ToLower(message)
	for _, ca := range cannedAnswers {
		if strings.Contains(lower, ca.keyword) {
			answer = ca.answer
			break
		}
	}
	c.JSON(http.StatusOK, models.ChatResponse{Response: answer, Success: true})
}

func (b *Backend) ChatSuggestions(c *gin.Context) {
	c.JSON(http.StatusOK, models.SuggestionsResponse{Suggestions: chatSuggestions, Success: true})
}
