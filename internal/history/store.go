package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ytget/yt-langdl/internal/model"
)

// Defaults
const (
	AppConfigDir    = "yt-langdl"
	DefaultFileName = "history.db"
	DefaultLimit    = 20
)

// Record errors
var (
	ErrNilTask        = errors.New("nil task")
	ErrUnfinishedTask = errors.New("task is not finished")
)

// Record is one finished task as stored on disk
type Record struct {
	ID         uint   `gorm:"primaryKey"`
	TaskID     string `gorm:"uniqueIndex"`
	URL        string `gorm:"index"`
	Title      string
	Strategy   string
	Status     string `gorm:"index"`
	FellBack   bool
	OutputPath string
	LastError  string
	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
}

// Stats counts stored records by outcome
type Stats struct {
	Total     int64
	Completed int64
	Failed    int64
	FellBack  int64
}

// Store is a gorm backed history database
type Store struct {
	db *gorm.DB
}

// DefaultPath returns the history file under the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, AppConfigDir, DefaultFileName), nil
}

// OpenDefault opens the database at path, or at DefaultPath when path is empty
func OpenDefault(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	store, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}
	return store, nil
}

// Open opens (creating if needed) the database at path and migrates the schema
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a finished task
func (s *Store) Record(ctx context.Context, task *model.DownloadTask) error {
	if task == nil {
		return ErrNilTask
	}
	if !task.Status.IsFinished() {
		return fmt.Errorf("%w: %s is %s", ErrUnfinishedTask, task.ID, task.Status)
	}
	rec := FromTask(task)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Recent returns the newest records first. A non-positive limit means DefaultLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var records []Record
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// FindByURL returns every record for url, newest first
func (s *Store) FindByURL(ctx context.Context, url string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).Where("url = ?", url).Order("id desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// Stats counts records by outcome
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := s.db.WithContext(ctx).Model(&Record{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count history: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&Record{}).
		Where("status = ?", model.TaskStatusCompleted.String()).
		Count(&stats.Completed).Error; err != nil {
		return stats, fmt.Errorf("failed to count completed: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&Record{}).
		Where("fell_back = ?", true).
		Count(&stats.FellBack).Error; err != nil {
		return stats, fmt.Errorf("failed to count fallbacks: %w", err)
	}
	stats.Failed = stats.Total - stats.Completed
	return stats, nil
}

// Close releases the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FromTask converts a task into its stored form
func FromTask(task *model.DownloadTask) *Record {
	return &Record{
		TaskID:     task.ID,
		URL:        task.URL,
		Title:      task.GetDisplayTitle(),
		Strategy:   task.Strategy.String(),
		Status:     task.Status.String(),
		FellBack:   task.FellBack,
		OutputPath: task.OutputPath,
		LastError:  task.LastError,
		StartedAt:  task.StartedAt,
		FinishedAt: task.FinishedAt,
	}
}
