package repository

import (
	"context"
	"time"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// ReplyRepository handles reply and denyword persistence.
type ReplyRepository interface {
	CreateReply(ctx context.Context, reply *entities.Reply) error
	SaveReply(ctx context.Context, reply *entities.Reply) error

	// ListVisible returns the not-hidden replies for a handle.
	ListVisible(ctx context.Context, handleID uint) ([]entities.Reply, error)

	// ListHidden returns the hidden replies for a handle, most recently
	// hidden first.
	ListHidden(ctx context.Context, handleID uint) ([]entities.Reply, error)

	// CountHiddenSince counts replies for a handle hidden at or after
	// since. This is the qualifying-event count behind surge evaluation.
	CountHiddenSince(ctx context.Context, handleID uint, since time.Time) (int64, error)

	CreateDenyWord(ctx context.Context, word *entities.DenyWord) error
	ListDenyWords(ctx context.Context, handleID uint) ([]entities.DenyWord, error)
}
