package models

import "time"

// Message is a direct message between two users. Either participant may
// read the conversation; there is no role restriction on messaging.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	FileURL    *string   `db:"file_url" json:"file_url,omitempty"`
	Read       bool      `db:"is_read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MessageDetail joins sender/receiver display facts onto a message.
type MessageDetail struct {
	Message
	SenderName   string   `db:"sender_name" json:"sender_name"`
	SenderRole   UserRole `db:"sender_role" json:"sender_role"`
	ReceiverName string   `db:"receiver_name" json:"receiver_name"`
	ReceiverRole UserRole `db:"receiver_role" json:"receiver_role"`
}
