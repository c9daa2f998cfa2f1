package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulink/edulink-api/internal/models"
)

func TestMessageCreatePersistsFileURL(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	fileURL := "https://files.example.com/worksheet.pdf"
	message := &models.Message{
		SenderID:   "t1",
		ReceiverID: "p1",
		Content:    "worksheet attached",
		FileURL:    &fileURL,
	}

	mock.ExpectExec(`INSERT INTO messages \(id, sender_id, receiver_id, content, file_url, is_read, created_at\)`).
		WithArgs(sqlmock.AnyArg(), "t1", "p1", "worksheet attached", fileURL, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), message))
	assert.NotEmpty(t, message.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageConversationReturnsFileURL(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	now := time.Now()
	fileURL := "https://files.example.com/worksheet.pdf"
	rows := sqlmock.NewRows([]string{
		"id", "sender_id", "receiver_id", "content", "file_url", "is_read", "created_at",
		"sender_name", "sender_role", "receiver_name", "receiver_role",
	}).
		AddRow("m1", "t1", "p1", "worksheet attached", fileURL, false, now, "Teacher", "teacher", "Parent", "parent").
		AddRow("m2", "p1", "t1", "thank you", nil, true, now, "Parent", "parent", "Teacher", "teacher")

	mock.ExpectQuery(`SELECT m\.id, m\.sender_id, m\.receiver_id, m\.content, m\.file_url, m\.is_read, m\.created_at`).
		WithArgs("p1", "t1").
		WillReturnRows(rows)

	messages, err := repo.Conversation(context.Background(), "p1", "t1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.NotNil(t, messages[0].FileURL)
	assert.Equal(t, fileURL, *messages[0].FileURL)
	assert.Nil(t, messages[1].FileURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageMarkConversationRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(`UPDATE messages SET is_read = TRUE`).
		WithArgs("p1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.MarkConversationRead(context.Background(), "p1", "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
