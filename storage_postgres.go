package scoutpod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ Storage = &PostgresStorage{}

// Conversation is the gorm model backing PostgresStorage.
type Conversation struct {
	ID               uint   `gorm:"primaryKey"`
	SessionID        string `gorm:"uniqueIndex;not null"`
	CustomerID       string `gorm:"index;not null"`
	UserMessage      string
	AssistantMessage string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PostgresStorage implements Storage on Postgres, for deployments where many
// agent processes share one conversation history.
type PostgresStorage struct {
	db *gorm.DB
}

// NewPostgresStorage connects with the given URI and migrates the schema.
func NewPostgresStorage(postgresURI string) (*PostgresStorage, error) {
	db, err := gorm.Open(postgres.Open(postgresURI), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(&Conversation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) CreateConversation(ctx context.Context, sessionID, customerID, userMessage string) error {
	conversation := Conversation{
		SessionID:   sessionID,
		CustomerID:  customerID,
		UserMessage: userMessage,
	}
	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (s *PostgresStorage) FinishConversation(ctx context.Context, sessionID, assistantMessage string) error {
	result := s.db.WithContext(ctx).
		Model(&Conversation{}).
		Where("session_id = ?", sessionID).
		Update("assistant_message", assistantMessage)
	if result.Error != nil {
		return fmt.Errorf("failed to update conversation with assistant message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no conversation found with session_id: %s", sessionID)
	}
	return nil
}

func (s *PostgresStorage) GetConversations(ctx context.Context, customerID string, limit, offset int) (*MessageList, error) {
	var conversations []Conversation
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}

	messages := NewMessageList()
	for _, conversation := range conversations {
		if conversation.UserMessage != "" {
			messages.Add(UserMessage(conversation.UserMessage))
		}
		if conversation.AssistantMessage != "" {
			messages.Add(AssistantMessage(conversation.AssistantMessage))
		}
	}
	return messages, nil
}
