package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"alumniportal/internal/dto"
	"alumniportal/internal/event"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

type ConversationService interface {
	// EnsureConversation returns the conversation between the two members,
	// creating it if absent. Safe under concurrent calls for the same pair.
	EnsureConversation(ctx context.Context, userA, userB uuid.UUID, requestID *uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, int64, error)
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID, page dto.PageQuery) ([]model.Message, int64, error)
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, input dto.SendMessageInput) (*model.Message, error)
}

type conversationService struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
	dispatcher    NotificationDispatcher
	notifications NotificationService
	txm           repository.TxManager
}

func NewConversationService(
	conversations repository.ConversationRepository,
	users repository.UserRepository,
	dispatcher NotificationDispatcher,
	notifications NotificationService,
	txm repository.TxManager,
) ConversationService {
	return &conversationService{
		conversations: conversations,
		users:         users,
		dispatcher:    dispatcher,
		notifications: notifications,
		txm:           txm,
	}
}

func (s *conversationService) EnsureConversation(ctx context.Context, userA, userB uuid.UUID, requestID *uuid.UUID) (*model.Conversation, error) {
	a, b := model.OrderPair(userA, userB)

	conv, err := s.conversations.FindByPair(ctx, a, b)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	conv = &model.Conversation{
		UserAID:   a,
		UserBID:   b,
		RequestID: requestID,
	}
	err = s.conversations.Create(ctx, conv)
	if errors.Is(err, repository.ErrConversationExists) {
		// Lost the race; the winner's row is the conversation.
		return s.conversations.FindByPair(ctx, a, b)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *conversationService) ListConversations(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.Conversation, int64, error) {
	page.Normalize()
	return s.conversations.ListByUser(ctx, userID, page.Limit, page.Offset())
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, page dto.PageQuery) ([]model.Message, int64, error) {
	page.Normalize()

	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conv.HasParticipant(userID) {
		return nil, 0, apperror.ErrForbidden
	}

	messages, total, err := s.conversations.ListMessages(ctx, conversationID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}

	// Opening the thread reads it.
	if err := s.conversations.MarkMessagesRead(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (s *conversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, input dto.SendMessageInput) (*model.Message, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, apperror.ErrForbidden
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient := conv.OtherParticipant(senderID)

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        input.Content,
	}

	var created *model.Notification
	err = s.txm.Transact(ctx, func(ctx context.Context) error {
		if err := s.conversations.CreateMessage(ctx, msg); err != nil {
			return err
		}
		if err := s.conversations.UpdateLastMessage(ctx, conversationID, time.Now().UTC(), msg.Preview()); err != nil {
			return err
		}

		n, err := s.dispatcher.Dispatch(ctx, event.MessageSent{
			Message:    msg,
			Recipient:  recipient,
			SenderName: sender.FullName,
		})
		if err != nil && !errors.Is(err, apperror.ErrDispatchSkipped) {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.EchoEmail(ctx, created)

	return msg, nil
}
