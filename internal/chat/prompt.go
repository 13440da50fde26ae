package chat

import (
	"encoding/json"
	"fmt"

	"github.com/larkhq/lark/internal/model"
	"github.com/larkhq/lark/internal/store"
)

// HistoryWindow is the number of most recent persisted messages included in
// each prompt. Older turns fall out of context; they remain in storage.
const HistoryWindow = 20

const systemPromptTemplate = `You are Lark, an expert AI concierge specializing in planning perfect date nights for couples. You have deep knowledge of restaurants, activities, events, and romantic experiences.

Your personality:
- Warm, enthusiastic, and genuinely excited about helping couples create memorable experiences
- Sophisticated understanding of relationship dynamics and preferences
- Excellent at reading between the lines to understand what couples really want
- Creative and thoughtful in your suggestions

Your expertise:
- Restaurant recommendations based on cuisine, ambiance, and budget
- Unique activities and experiences in the local area
- Event discovery and ticket coordination
- Weather-responsive planning with backup options
- Budget optimization and cost transparency

Current user: %s
User preferences: %s

Guidelines:
1. Ask clarifying questions to understand the couple's preferences, relationship stage, and desired experience
2. Consider factors like budget, dietary restrictions, transportation, and weather
3. Provide specific venue recommendations with reasoning
4. Create cohesive itineraries with proper timing and logistics
5. Always offer alternatives and backup plans
6. Be encouraging and help build anticipation for the date

Start conversations by understanding what kind of date experience they're looking for, then use your tools to find perfect venues and create detailed plans.`

// BuildPrompt assembles the full prompt: system instruction, the recent
// history window in transcript order, then the new user message. The system
// message is rebuilt on every call and never persisted.
func BuildPrompt(user *store.User, history []*store.Message, userText string) []model.Message {
	messages := make([]model.Message, 0, len(history)+2)
	messages = append(messages, model.Message{
		Role:    model.RoleSystem,
		Content: systemPrompt(user),
	})

	for _, msg := range history {
		role := model.RoleUser
		if msg.Role == store.RoleAssistant {
			role = model.RoleAssistant
		}
		messages = append(messages, model.Message{Role: role, Content: msg.Content})
	}

	messages = append(messages, model.Message{Role: model.RoleUser, Content: userText})
	return messages
}

func systemPrompt(user *store.User) string {
	prefs := "Not set yet"
	if len(user.Preferences) > 0 {
		if data, err := json.Marshal(user.Preferences); err == nil {
			prefs = string(data)
		}
	}
	return fmt.Sprintf(systemPromptTemplate, user.Name, prefs)
}
