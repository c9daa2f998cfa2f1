package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	Conversation(ctx context.Context, userID, otherID string) ([]models.MessageDetail, error)
	ListForUser(ctx context.Context, userID string) ([]models.MessageDetail, error)
	MarkConversationRead(ctx context.Context, userID, otherID string) error
}

type messageUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SendMessageRequest is the direct message payload.
type SendMessageRequest struct {
	ReceiverID string  `json:"receiver_id" validate:"required"`
	Content    string  `json:"content" validate:"required"`
	FileURL    *string `json:"file_url,omitempty" validate:"omitempty,url"`
}

// MessageService provides direct messaging between accounts.
type MessageService struct {
	messages  messageRepository
	users     messageUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService instance.
func NewMessageService(messages messageRepository, users messageUserRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MessageService{messages: messages, users: users, validator: validate, logger: logger}
}

// Send delivers a message from the caller to another account.
func (s *MessageService) Send(ctx context.Context, caller authz.Caller, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if req.ReceiverID == caller.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	if decision := authz.Authorize(caller, authz.ActionSendMessage, authz.Facts{SenderID: caller.UserID, ReceiverID: req.ReceiverID}); !decision.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if _, err := s.users.FindByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}

	message := &models.Message{
		SenderID:   caller.UserID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		FileURL:    req.FileURL,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	return message, nil
}

// Conversation returns the full exchange between the caller and another
// account and marks the caller's incoming half as read.
func (s *MessageService) Conversation(ctx context.Context, caller authz.Caller, otherID string) ([]models.MessageDetail, error) {
	if decision := authz.Authorize(caller, authz.ActionReadMessages, authz.Facts{SenderID: caller.UserID, ReceiverID: otherID}); !decision.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	messages, err := s.messages.Conversation(ctx, caller.UserID, otherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversation")
	}

	if err := s.messages.MarkConversationRead(ctx, caller.UserID, otherID); err != nil {
		s.logger.Warn("failed to mark conversation read", zap.Error(err))
	}
	return messages, nil
}

// Inbox returns every message the caller sent or received, newest first.
func (s *MessageService) Inbox(ctx context.Context, caller authz.Caller) ([]models.MessageDetail, error) {
	if decision := authz.Authorize(caller, authz.ActionReadMessages, authz.Facts{SenderID: caller.UserID}); !decision.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	messages, err := s.messages.ListForUser(ctx, caller.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}
