// Package chat runs the per-request companion chat flow.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/mood"
	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/prompt"
	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/utils"
)

// DefaultCompletionTimeout bounds one completion call.
const DefaultCompletionTimeout = 60 * time.Second

// ConversationStore persists conversations and their message logs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *types.Conversation) error
	GetConversation(ctx context.Context, id int) (*types.Conversation, error)
	ListConversations(ctx context.Context, userID int) ([]types.Conversation, error)
	ListMessages(ctx context.Context, conversationID int) ([]types.Message, error)
	AppendMessage(ctx context.Context, msg *types.Message) error
}

// CharacterStore supplies characters by id.
type CharacterStore interface {
	GetCharacter(ctx context.Context, id int) (*types.Character, error)
}

// Gate consumes message quota.
type Gate interface {
	ConsumeMessage(ctx context.Context, userID int) error
}

// Completer produces one reply from a system prompt and role-tagged turns.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error)
}

// Options wires the collaborators of a Service.
type Options struct {
	Conversations ConversationStore
	Characters    CharacterStore
	Gate          Gate
	// Completer may be nil, in which case every reply is the fallback text.
	Completer         Completer
	Personas          *persona.Registry
	Selector          *mood.Selector
	HistoryLimit      int
	CompletionTimeout time.Duration
}

// Service orchestrates gate check, context window, mood, prompt and completion.
type Service struct {
	conversations ConversationStore
	characters    CharacterStore
	gate          Gate
	completer     Completer
	personas      *persona.Registry
	selector      *mood.Selector
	historyLimit  int
	timeout       time.Duration
	rand          mood.RandSource
	now           func() time.Time
}

// NewService returns a chat Service.
func NewService(opts Options) *Service {
	s := &Service{
		conversations: opts.Conversations,
		characters:    opts.Characters,
		gate:          opts.Gate,
		completer:     opts.Completer,
		personas:      opts.Personas,
		selector:      opts.Selector,
		historyLimit:  opts.HistoryLimit,
		timeout:       opts.CompletionTimeout,
		rand:          sharedRand{},
		now:           time.Now,
	}
	if s.personas == nil {
		s.personas = persona.Default()
	}
	if s.selector == nil {
		s.selector = mood.NewSelector(nil, nil)
	}
	if s.historyLimit <= 0 {
		s.historyLimit = DefaultHistoryLimit
	}
	if s.timeout <= 0 {
		s.timeout = DefaultCompletionTimeout
	}
	return s
}

// sharedRand draws from the goroutine-safe top-level generator of math/rand/v2.
type sharedRand struct{}

func (sharedRand) Float64() float64 { return rand.Float64() }
func (sharedRand) IntN(n int) int   { return rand.IntN(n) }

// SendRequest is one user chat message.
type SendRequest struct {
	UserID         int    `json:"-"`
	ConversationID int    `json:"conversation_id"`
	// CharacterID is used when ConversationID is zero: the user's active
	// conversation with that character is reused or a new one is started.
	CharacterID int    `json:"character_id"`
	Message     string `json:"message"`
	// MoodKey pins the mood instead of drawing one.
	MoodKey string `json:"mood,omitempty"`
}

// Reply is the character's answer to a SendRequest.
type Reply struct {
	ConversationID int       `json:"conversation_id"`
	MessageID      int       `json:"message_id"`
	CharacterName  string    `json:"character_name"`
	Text           string    `json:"response"`
	Mood           mood.Mood `json:"mood"`
	Fallback       bool      `json:"fallback"`
	CreatedAt      time.Time `json:"created_at"`
}

// Send runs one chat turn. Provider failures never surface: the reply falls
// back to the persona's fixed text instead.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperr.Invalid("message is required")
	}

	conv, err := s.conversationFor(ctx, req)
	if err != nil {
		return nil, err
	}
	character, err := s.activeCharacter(ctx, conv.CharacterID)
	if err != nil {
		return nil, err
	}
	current, err := s.resolveMood(character, req.MoodKey)
	if err != nil {
		return nil, err
	}

	// A failed history read must not cost the user a message.
	history, err := s.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if s.gate != nil {
		if err := s.gate.ConsumeMessage(ctx, req.UserID); err != nil {
			return nil, err
		}
	}
	if err := s.conversations.AppendMessage(ctx, &types.Message{
		ConversationID: conv.ID,
		UserID:         req.UserID,
		CharacterID:    character.ID,
		Content:        text,
		MessageType:    types.MessageTypeText,
		Sender:         types.SenderUser,
		CreatedAt:      s.now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	window := BuildWindow(history, text, s.historyLimit)
	systemPrompt := prompt.Compose(prompt.ComposeInput{Character: character, Mood: &current})
	answer, fallback := s.complete(ctx, character, systemPrompt, window)

	reply := &types.Message{
		ConversationID: conv.ID,
		UserID:         req.UserID,
		CharacterID:    character.ID,
		Content:        answer,
		MessageType:    types.MessageTypeText,
		Sender:         types.SenderCharacter,
		CreatedAt:      s.now(),
	}
	if err := s.conversations.AppendMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	return &Reply{
		ConversationID: conv.ID,
		MessageID:      reply.ID,
		CharacterName:  character.DisplayName,
		Text:           answer,
		Mood:           current,
		Fallback:       fallback,
		CreatedAt:      reply.CreatedAt,
	}, nil
}

func (s *Service) complete(ctx context.Context, character *types.Character, systemPrompt string, window []types.Turn) (string, bool) {
	key := character.PersonaKey
	if key == "" {
		key = character.Name
	}
	if s.completer == nil {
		slog.Warn("no completion provider configured, using fallback", "character", key)
		return s.personas.FallbackReply(key), true
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.completer.Complete(ctx, systemPrompt, window)
	if err == nil {
		answer = utils.CleanReply(answer, firstNonEmpty(character.Name, character.DisplayName))
		if answer == "" {
			err = apperr.ProviderFailure("empty completion", nil)
		}
	}
	if err != nil {
		slog.Error("completion failed, using fallback", "character", key, "error", err.Error())
		return s.personas.FallbackReply(key), true
	}
	return answer, false
}

func (s *Service) resolveMood(character *types.Character, pinned string) (mood.Mood, error) {
	now := s.now()
	if pinned = strings.TrimSpace(pinned); pinned != "" {
		m, ok := s.selector.Catalog().Lookup(pinned)
		if !ok {
			return mood.Mood{}, apperr.NotFound("mood %q not found", pinned)
		}
		m = mood.WithDuration(m, s.rand, now)
		m.Pinned = true
		return m, nil
	}

	in := mood.Input{Now: now}
	if character != nil {
		in.Traits = character.Traits
		in.Style = character.ConversationStyle
	}
	return mood.WithDuration(s.selector.Select(in, s.rand), s.rand, now), nil
}

func (s *Service) conversationFor(ctx context.Context, req SendRequest) (*types.Conversation, error) {
	if req.ConversationID > 0 {
		return s.ownedConversation(ctx, req.ConversationID, req.UserID)
	}
	if req.CharacterID <= 0 {
		return nil, apperr.Invalid("conversation_id or character_id is required")
	}

	convs, err := s.conversations.ListConversations(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	for i := range convs {
		if convs[i].CharacterID == req.CharacterID && convs[i].IsActive {
			return &convs[i], nil
		}
	}
	return s.StartConversation(ctx, req.UserID, req.CharacterID, "")
}

func (s *Service) ownedConversation(ctx context.Context, id, userID int) (*types.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID || !conv.IsActive {
		return nil, apperr.NotFound("conversation %d not found", id)
	}
	return conv, nil
}

func (s *Service) activeCharacter(ctx context.Context, id int) (*types.Character, error) {
	character, err := s.characters.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if character == nil || !character.IsActive {
		return nil, apperr.NotFound("character %d not found", id)
	}
	return character, nil
}

// StartConversation opens a conversation between userID and an active character.
func (s *Service) StartConversation(ctx context.Context, userID, characterID int, title string) (*types.Conversation, error) {
	character, err := s.activeCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		title = "Chat with " + character.Name
	}

	now := s.now()
	conv := &types.Conversation{
		UserID:      userID,
		CharacterID: character.ID,
		Title:       title,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// Conversations lists the user's conversations, most recent first.
func (s *Service) Conversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	convs, err := s.conversations.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// Conversation returns one of the user's conversations with its messages.
func (s *Service) Conversation(ctx context.Context, id, userID int) (*types.ConversationWithMessages, error) {
	conv, err := s.ownedConversation(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return &types.ConversationWithMessages{Conversation: *conv, Messages: messages}, nil
}

// MoodStatus describes a character's mood for display.
type MoodStatus struct {
	CharacterID int           `json:"character_id"`
	Current     mood.Mood     `json:"current_mood"`
	Recommended []string      `json:"recommended_moods"`
	Weights     []mood.Weight `json:"weights"`
}

// MoodStatus draws a mood for the character without persisting it.
func (s *Service) MoodStatus(ctx context.Context, characterID int) (*MoodStatus, error) {
	character, err := s.activeCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	current, err := s.resolveMood(character, "")
	if err != nil {
		return nil, err
	}
	return &MoodStatus{
		CharacterID: character.ID,
		Current:     current,
		Recommended: s.selector.Recommend(character.Traits, character.ConversationStyle),
		Weights: s.selector.Weights(mood.Input{
			Traits: character.Traits,
			Style:  character.ConversationStyle,
			Now:    current.StartedAt,
		}),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
