package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/treepeck/forumws/pkg/types"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type topicRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Title      string `gorm:"size:200;not null"`
	AuthorID   *int64 `gorm:"index"`
	AuthorName string `gorm:"size:100;not null"`
	CreatedAt  time.Time
}

func (topicRow) TableName() string {
	return "topics"
}

type postRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	TopicID    int64  `gorm:"index;not null"`
	Content    string `gorm:"not null"`
	AuthorID   *int64
	AuthorName string `gorm:"size:100;not null"`
	CreatedAt  time.Time
}

func (postRow) TableName() string {
	return "posts"
}

/*
SQL is a Store backed by a GORM database.
*/
type SQL struct {
	db *gorm.DB
}

/*
Open opens (or creates) the SQLite database at path and migrates the schema.
A single connection is kept open since SQLite serializes writers anyway and
concurrent writers would otherwise fail with "database is locked".
*/
func Open(path string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("cannot access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&topicRow{}, &postRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("cannot migrate database: %w", err)
	}

	return &SQL{db: db}, nil
}

// Close releases the underlying connection.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQL) CreatePost(
	ctx context.Context,
	topicID int64,
	content string,
	author *types.Identity,
	fallbackName string,
) (types.Post, error) {
	row := postRow{
		TopicID:    topicID,
		Content:    content,
		AuthorName: fallbackName,
		CreatedAt:  time.Now().UTC(),
	}
	if author != nil && author.Authenticated() {
		row.AuthorID = author.UserID()
		if name := strings.TrimSpace(author.Name); name != "" {
			row.AuthorName = name
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&topicRow{}).Where("id = ?", topicID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.Post{}, fmt.Errorf("topic %d: %w", topicID, ErrNotFound)
		}
		return types.Post{}, fmt.Errorf("cannot create post: %w", err)
	}

	return row.toPost(), nil
}

func (s *SQL) CreateTopic(ctx context.Context, title, fallbackName string) (types.Topic, error) {
	row := topicRow{
		Title:      title,
		AuthorName: fallbackName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return types.Topic{}, fmt.Errorf("cannot create topic: %w", err)
	}
	return row.toTopic(), nil
}

func (s *SQL) Post(ctx context.Context, id int64) (types.Post, error) {
	var row postRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Post{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return types.Post{}, fmt.Errorf("cannot find post: %w", err)
	}
	return row.toPost(), nil
}

func (s *SQL) Topic(ctx context.Context, id int64) (types.Topic, error) {
	var row topicRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Topic{}, fmt.Errorf("topic %d: %w", id, ErrNotFound)
		}
		return types.Topic{}, fmt.Errorf("cannot find topic: %w", err)
	}
	return row.toTopic(), nil
}

func (s *SQL) CountPosts(ctx context.Context, topicID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&postRow{}).Where("topic_id = ?", topicID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("cannot count posts: %w", err)
	}
	return n, nil
}

func (r postRow) toPost() types.Post {
	return types.Post{
		ID:         r.ID,
		TopicID:    r.TopicID,
		Content:    r.Content,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (r topicRow) toTopic() types.Topic {
	return types.Topic{
		ID:         r.ID,
		Title:      r.Title,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}
