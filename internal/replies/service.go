// Package replies ingests social replies and applies per-handle denyword
// moderation. A reply matching a denyword is hidden, and hidden replies
// are the qualifying events that surge evaluation counts.
package replies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
	"github.com/addynamo/surge-alerts/internal/datastore/repository"
	"github.com/addynamo/surge-alerts/internal/logger"
)

// Service stores replies and manages denywords for handles.
type Service struct {
	handles repository.HandleRepository
	replies repository.ReplyRepository
	log     logger.Logger
}

// NewService creates a reply ingestion service.
func NewService(handles repository.HandleRepository, replies repository.ReplyRepository, log logger.Logger) *Service {
	return &Service{handles: handles, replies: replies, log: log}
}

// StoreReply persists a new reply for a handle, creating the handle on
// first sight. The content is checked against the handle's denywords;
// the first match hides the reply immediately.
func (s *Service) StoreReply(ctx context.Context, handleName, replyID, content string) (*entities.Reply, error) {
	handle, err := s.handles.GetOrCreate(ctx, handleName)
	if err != nil {
		return nil, err
	}

	reply := &entities.Reply{
		ReplyID:  replyID,
		Content:  content,
		HandleID: handle.ID,
	}

	words, err := s.replies.ListDenyWords(ctx, handle.ID)
	if err != nil {
		return nil, err
	}
	lowered := strings.ToLower(content)
	for i := range words {
		if strings.Contains(lowered, strings.ToLower(words[i].Word)) {
			hideReply(reply, words[i].Word, time.Now().UTC())
			break
		}
	}

	if err := s.replies.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	if reply.IsHidden {
		s.log.Info("reply hidden on ingest",
			logger.String("handle", handleName),
			logger.String("reply_id", replyID),
			logger.String("word", reply.HiddenByWord))
	}
	return reply, nil
}

// AddDenyWord registers a new denyword for a handle and retroactively
// hides existing visible replies that contain it. The newly hidden
// replies are returned so callers can report the moderation effect.
func (s *Service) AddDenyWord(ctx context.Context, handleName, word string) (*entities.DenyWord, []entities.Reply, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, nil, errors.New("denyword must not be empty")
	}

	handle, err := s.handles.GetOrCreate(ctx, handleName)
	if err != nil {
		return nil, nil, err
	}

	denyword := &entities.DenyWord{Word: word, HandleID: handle.ID}
	if err := s.replies.CreateDenyWord(ctx, denyword); err != nil {
		return nil, nil, err
	}

	visible, err := s.replies.ListVisible(ctx, handle.ID)
	if err != nil {
		return nil, nil, err
	}

	var newlyHidden []entities.Reply
	lowered := strings.ToLower(word)
	hiddenAt := time.Now().UTC()
	for i := range visible {
		if !strings.Contains(strings.ToLower(visible[i].Content), lowered) {
			continue
		}
		hideReply(&visible[i], word, hiddenAt)
		if err := s.replies.SaveReply(ctx, &visible[i]); err != nil {
			return nil, nil, fmt.Errorf("hide reply %s: %w", visible[i].ReplyID, err)
		}
		newlyHidden = append(newlyHidden, visible[i])
	}

	s.log.Info("denyword added",
		logger.String("handle", handleName),
		logger.String("word", word),
		logger.Int("newly_hidden", len(newlyHidden)))
	return denyword, newlyHidden, nil
}

// HiddenReplies returns the hidden replies for a handle, most recently
// hidden first. An unknown handle yields an empty list, not an error.
func (s *Service) HiddenReplies(ctx context.Context, handleName string) ([]entities.Reply, error) {
	handle, err := s.handles.GetByName(ctx, handleName)
	if errors.Is(err, repository.ErrHandleNotFound) {
		return []entities.Reply{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.replies.ListHidden(ctx, handle.ID)
}

// DenyWords returns the denywords registered for a handle.
func (s *Service) DenyWords(ctx context.Context, handleName string) ([]entities.DenyWord, error) {
	handle, err := s.handles.GetByName(ctx, handleName)
	if errors.Is(err, repository.ErrHandleNotFound) {
		return []entities.DenyWord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.replies.ListDenyWords(ctx, handle.ID)
}

func hideReply(reply *entities.Reply, word string, at time.Time) {
	reply.IsHidden = true
	reply.HiddenAt = &at
	reply.HiddenByWord = word
}
