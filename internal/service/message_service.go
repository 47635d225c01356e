package service

import (
	"context"
	"errors"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/hub"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/repository"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
)

// ErrRecipientNotFound is returned when the message recipient does not
// resolve to an account.
var ErrRecipientNotFound = errors.New("recipient not found")

type messageServiceImpl struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher *hub.Dispatcher
}

// NewMessageService creates a new message service.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, dispatcher *hub.Dispatcher) MessageService {
	return &messageServiceImpl{
		messages:   messages,
		users:      users,
		dispatcher: dispatcher,
	}
}

// Send persists the message, then pushes it to the recipient's live
// connections. The message stays persisted whatever the delivery
// outcome; dispatch failures never surface to the sender.
func (s *messageServiceImpl) Send(ctx context.Context, senderID int64, req *domain.SendMessageRequest) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if _, err := s.users.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	msg := &domain.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).Int64(log.FieldRecipientID, req.RecipientID).Msg("failed to persist message")
		return nil, err
	}

	s.dispatcher.Dispatch(msg)
	return msg, nil
}

// History returns the conversation between the caller and another user,
// oldest first.
func (s *messageServiceImpl) History(ctx context.Context, userID, withUserID int64) (*domain.ChatHistory, error) {
	messages, err := s.messages.History(ctx, userID, withUserID)
	if err != nil {
		return nil, err
	}
	return &domain.ChatHistory{
		WithUserID: withUserID,
		Messages:   messages,
	}, nil
}
