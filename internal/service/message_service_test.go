package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink/edulink-api/internal/authz"
	"github.com/edulink/edulink-api/internal/models"
	appErrors "github.com/edulink/edulink-api/pkg/errors"
)

type mockMessages struct {
	messages []models.Message
	marked   [][2]string
}

func (m *mockMessages) Create(ctx context.Context, message *models.Message) error {
	message.ID = "msg-1"
	message.CreatedAt = time.Now()
	m.messages = append(m.messages, *message)
	return nil
}

func (m *mockMessages) Conversation(ctx context.Context, userID, otherID string) ([]models.MessageDetail, error) {
	var out []models.MessageDetail
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.ReceiverID == otherID) || (msg.SenderID == otherID && msg.ReceiverID == userID) {
			out = append(out, models.MessageDetail{Message: msg})
		}
	}
	return out, nil
}

func (m *mockMessages) ListForUser(ctx context.Context, userID string) ([]models.MessageDetail, error) {
	var out []models.MessageDetail
	for _, msg := range m.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, models.MessageDetail{Message: msg})
		}
	}
	return out, nil
}

func (m *mockMessages) MarkConversationRead(ctx context.Context, userID, otherID string) error {
	m.marked = append(m.marked, [2]string{userID, otherID})
	return nil
}

func newMessageService(messages *mockMessages) *MessageService {
	users := &mockParentUsers{byID: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleTeacher},
		"p1": {ID: "p1", Role: models.RoleParent},
	}}
	return NewMessageService(messages, users, nil, nil)
}

func TestSendMessage(t *testing.T) {
	messages := &mockMessages{}
	svc := newMessageService(messages)

	msg, err := svc.Send(context.Background(), authz.Caller{UserID: "p1", Role: models.RoleParent}, SendMessageRequest{ReceiverID: "t1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "p1", msg.SenderID)
	assert.False(t, msg.Read)
}

func TestSendMessageUnknownRecipient(t *testing.T) {
	svc := newMessageService(&mockMessages{})

	_, err := svc.Send(context.Background(), authz.Caller{UserID: "p1", Role: models.RoleParent}, SendMessageRequest{ReceiverID: "ghost", Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSendMessageToSelf(t *testing.T) {
	svc := newMessageService(&mockMessages{})

	_, err := svc.Send(context.Background(), authz.Caller{UserID: "p1", Role: models.RoleParent}, SendMessageRequest{ReceiverID: "p1", Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConversationMarksRead(t *testing.T) {
	messages := &mockMessages{messages: []models.Message{
		{ID: "m1", SenderID: "t1", ReceiverID: "p1", Content: "update"},
	}}
	svc := newMessageService(messages)

	conv, err := svc.Conversation(context.Background(), authz.Caller{UserID: "p1", Role: models.RoleParent}, "t1")
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Len(t, messages.marked, 1)
	assert.Equal(t, [2]string{"p1", "t1"}, messages.marked[0])
}

func TestInboxListsBothDirections(t *testing.T) {
	messages := &mockMessages{messages: []models.Message{
		{ID: "m1", SenderID: "t1", ReceiverID: "p1"},
		{ID: "m2", SenderID: "p1", ReceiverID: "t1"},
		{ID: "m3", SenderID: "t1", ReceiverID: "x9"},
	}}
	svc := newMessageService(messages)

	inbox, err := svc.Inbox(context.Background(), authz.Caller{UserID: "p1", Role: models.RoleParent})
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
}
