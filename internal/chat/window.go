package chat

import "github.com/easeaico/liveroom/internal/types"

// DefaultHistoryLimit is the number of prior messages kept in the window.
const DefaultHistoryLimit = 10

// BuildWindow returns the last limit messages of history, oldest first,
// followed by newMessage as a user turn. Messages from the user map to the
// user role; everything else maps to the assistant role.
func BuildWindow(history []types.Message, newMessage string, limit int) []types.Turn {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	turns := make([]types.Turn, 0, len(history)+1)
	for _, msg := range history {
		role := types.RoleAssistant
		if msg.Sender == types.SenderUser {
			role = types.RoleUser
		}
		turns = append(turns, types.Turn{Role: role, Content: msg.Content})
	}
	return append(turns, types.Turn{Role: types.RoleUser, Content: newMessage})
}
