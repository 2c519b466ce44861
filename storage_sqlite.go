package scoutpod

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var _ Storage = &SQLiteStorage{}

// SQLiteStorage implements Storage on a local SQLite file. It shares the
// pure-Go driver the knowledge store uses, so the CLI stays cgo-free.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (and initializes, if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initDB() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		user_message TEXT,
		assistant_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id)
	);`

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateConversation stores a new conversation keyed by session ID.
func (s *SQLiteStorage) CreateConversation(ctx context.Context, sessionID, customerID, userMessage string) error {
	query := `
	INSERT INTO conversations (session_id, customer_id, user_message, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now()
	if _, err := s.db.ExecContext(ctx, query, sessionID, customerID, userMessage, now, now); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// FinishConversation updates an existing conversation with the assistant's
// answer.
func (s *SQLiteStorage) FinishConversation(ctx context.Context, sessionID, assistantMessage string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM conversations WHERE session_id = ?)", sessionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check conversation existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("no conversation found with session_id: %s", sessionID)
	}

	query := `
	UPDATE conversations
	SET assistant_message = ?, updated_at = ?
	WHERE session_id = ?
	`

	if _, err := s.db.ExecContext(ctx, query, assistantMessage, time.Now(), sessionID); err != nil {
		return fmt.Errorf("failed to update conversation with assistant message: %w", err)
	}

	return nil
}

// GetConversations retrieves conversation history for a customer.
func (s *SQLiteStorage) GetConversations(ctx context.Context, customerID string, limit, offset int) (*MessageList, error) {
	query := `
	SELECT user_message, assistant_message
	FROM conversations
	WHERE customer_id = ?
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	messages := NewMessageList()

	for rows.Next() {
		var userMsg, assistantMsg sql.NullString
		if err := rows.Scan(&userMsg, &assistantMsg); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if userMsg.Valid && userMsg.String != "" {
			messages.Add(UserMessage(userMsg.String))
		}

		if assistantMsg.Valid && assistantMsg.String != "" {
			messages.Add(AssistantMessage(assistantMsg.String))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return messages, nil
}
