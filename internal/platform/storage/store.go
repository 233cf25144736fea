package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TranscriptStore persists conversation turns to SQLite.
type TranscriptStore struct {
	db *gorm.DB
}

// Open creates (or opens) the transcript database at the given path and
// migrates the schema.
func Open(dsn string) (*TranscriptStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Session{}, &TranscriptMessage{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &TranscriptStore{db: db}, nil
}

// EnsureSession creates the session row if it does not exist yet.
func (s *TranscriptStore) EnsureSession(sessionID string) error {
	session := Session{ID: sessionID}
	result := s.db.FirstOrCreate(&session, Session{ID: sessionID})
	return result.Error
}

// Append records one turn for the session.
func (s *TranscriptStore) Append(msg *TranscriptMessage) error {
	if msg.SessionID == "" {
		return fmt.Errorf("transcript message requires a session id")
	}
	if err := s.EnsureSession(msg.SessionID); err != nil {
		return err
	}
	return s.db.Create(msg).Error
}

// Messages returns the full transcript for a session in chronological order.
func (s *TranscriptStore) Messages(sessionID string) ([]TranscriptMessage, error) {
	var out []TranscriptMessage
	err := s.db.Where("session_id = ?", sessionID).Order("id asc").Find(&out).Error
	return out, err
}

// Sessions lists known session IDs, most recent first.
func (s *TranscriptStore) Sessions() ([]Session, error) {
	var out []Session
	err := s.db.Order("updated_at desc").Find(&out).Error
	return out, err
}

// Close releases the underlying connection pool.
func (s *TranscriptStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
