package types

import "time"

const (
	// SenderUser marks a message written by the user.
	SenderUser = "user"
	// SenderCharacter marks a message written by the character.
	SenderCharacter = "character"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// Conversation is a chat thread between one user and one character.
type Conversation struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	CharacterID int       `json:"character_id"`
	Title       string    `json:"title"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is one append-only turn of a conversation.
type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	UserID         int       `json:"user_id"`
	CharacterID    int       `json:"character_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	Sender         string    `json:"sender"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationWithMessages bundles a conversation and its ordered log.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

const (
	// RoleUser tags turns written by the user.
	RoleUser = "user"
	// RoleAssistant tags turns written by the character.
	RoleAssistant = "assistant"
)

// Turn is one role-tagged entry of the context window sent to the model.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
