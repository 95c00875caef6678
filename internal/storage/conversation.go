package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/easeaico/liveroom/internal/types"
)

// conversationModel maps to the conversations table.
type conversationModel struct {
	ID          int
	UserID      int `gorm:"index"`
	CharacterID int `gorm:"index"`
	Title       string
	IsActive    bool `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (conversationModel) TableName() string {
	return "conversations"
}

// messageModel maps to the messages table. Rows are append-only.
type messageModel struct {
	ID             int
	ConversationID int `gorm:"index:idx_messages_conversation_created"`
	UserID         int
	CharacterID    int
	Content        string
	MessageType    string    `gorm:"size:20;default:text"`
	Sender         string    `gorm:"size:20"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created"`
}

func (messageModel) TableName() string {
	return "messages"
}

// ConversationRepo accesses conversations and their messages.
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo returns a ConversationRepo.
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation cannot be nil")
	}
	record := conversationModel{
		UserID:      conv.UserID,
		CharacterID: conv.CharacterID,
		Title:       conv.Title,
		IsActive:    conv.IsActive,
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	*conv = conversationFromModel(record)
	return nil
}

func (r *ConversationRepo) GetConversation(ctx context.Context, id int) (*types.Conversation, error) {
	var record conversationModel
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if nf := notFound(err, "conversation %d not found", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get conversation by id: %w", err)
	}
	conv := conversationFromModel(record)
	return &conv, nil
}

// ListConversations returns the user's active conversations, most recently
// updated first.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	var records []conversationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	out := make([]types.Conversation, 0, len(records))
	for _, record := range records {
		out = append(out, conversationFromModel(record))
	}
	return out, nil
}

// ListMessages returns the full message log in creation order.
func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID int) ([]types.Message, error) {
	var records []messageModel
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	out := make([]types.Message, 0, len(records))
	for _, record := range records {
		out = append(out, messageFromModel(record))
	}
	return out, nil
}

// AppendMessage stores a message and bumps the conversation's updated_at.
func (r *ConversationRepo) AppendMessage(ctx context.Context, msg *types.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	record := messageModel{
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		CharacterID:    msg.CharacterID,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		Sender:         msg.Sender,
		CreatedAt:      msg.CreatedAt,
	}
	if record.MessageType == "" {
		record.MessageType = types.MessageTypeText
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if err := tx.Model(&conversationModel{}).
			Where("id = ?", record.ConversationID).
			Update("updated_at", record.CreatedAt).Error; err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	*msg = messageFromModel(record)
	return nil
}

func conversationFromModel(model conversationModel) types.Conversation {
	return types.Conversation{
		ID:          model.ID,
		UserID:      model.UserID,
		CharacterID: model.CharacterID,
		Title:       model.Title,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func messageFromModel(model messageModel) types.Message {
	return types.Message{
		ID:             model.ID,
		ConversationID: model.ConversationID,
		UserID:         model.UserID,
		CharacterID:    model.CharacterID,
		Content:        model.Content,
		MessageType:    model.MessageType,
		Sender:         model.Sender,
		CreatedAt:      model.CreatedAt,
	}
}
