package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// replyRepository implements ReplyRepository on GORM.
type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a ReplyRepository backed by db.
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

// CreateReply inserts a new reply.
func (r *replyRepository) CreateReply(ctx context.Context, reply *entities.Reply) error {
	if err := r.db.WithContext(ctx).Create(reply).Error; err != nil {
		return fmt.Errorf("create reply %s: %w", reply.ReplyID, err)
	}
	return nil
}

// SaveReply persists all fields of an existing reply.
func (r *replyRepository) SaveReply(ctx context.Context, reply *entities.Reply) error {
	if err := r.db.WithContext(ctx).Save(reply).Error; err != nil {
		return fmt.Errorf("save reply %s: %w", reply.ReplyID, err)
	}
	return nil
}

// ListVisible returns the not-hidden replies for a handle.
func (r *replyRepository) ListVisible(ctx context.Context, handleID uint) ([]entities.Reply, error) {
	var replies []entities.Reply
	err := r.db.WithContext(ctx).
		Where("handle_id = ? AND is_hidden = ?", handleID, false).
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("list visible replies for handle %d: %w", handleID, err)
	}
	return replies, nil
}

// ListHidden returns the hidden replies for a handle, newest first.
func (r *replyRepository) ListHidden(ctx context.Context, handleID uint) ([]entities.Reply, error) {
	var replies []entities.Reply
	err := r.db.WithContext(ctx).
		Where("handle_id = ? AND is_hidden = ?", handleID, true).
		Order("hidden_at DESC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("list hidden replies for handle %d: %w", handleID, err)
	}
	return replies, nil
}

// CountHiddenSince counts hidden replies at or after since.
func (r *replyRepository) CountHiddenSince(ctx context.Context, handleID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Reply{}).
		Where("handle_id = ? AND is_hidden = ? AND hidden_at >= ?", handleID, true, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count hidden replies for handle %d: %w", handleID, err)
	}
	return count, nil
}

// CreateDenyWord inserts a new denyword.
func (r *replyRepository) CreateDenyWord(ctx context.Context, word *entities.DenyWord) error {
	if err := r.db.WithContext(ctx).Create(word).Error; err != nil {
		return fmt.Errorf("create denyword %q: %w", word.Word, err)
	}
	return nil
}

// ListDenyWords returns all denywords for a handle.
func (r *replyRepository) ListDenyWords(ctx context.Context, handleID uint) ([]entities.DenyWord, error) {
	var words []entities.DenyWord
	err := r.db.WithContext(ctx).
		Where("handle_id = ?", handleID).
		Order("created_at ASC").
		Find(&words).Error
	if err != nil {
		return nil, fmt.Errorf("list denywords for handle %d: %w", handleID, err)
	}
	return words, nil
}
