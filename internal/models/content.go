package models

import (
	"time"

	"github.com/lib/pq"
)

// LessonFileType enumerates supported lesson material kinds.
type LessonFileType string

const (
	LessonFileText  LessonFileType = "text"
	LessonFilePDF   LessonFileType = "pdf"
	LessonFileVideo LessonFileType = "video"
)

// Lesson is class-scoped teaching material. File URLs are opaque
// references; upload handling lives outside this service.
type Lesson struct {
	ID        string         `db:"id" json:"id"`
	ClassID   string         `db:"class_id" json:"class_id"`
	Title     string         `db:"title" json:"title"`
	Content   *string        `db:"content" json:"content,omitempty"`
	FileType  LessonFileType `db:"file_type" json:"file_type"`
	FileURL   *string        `db:"file_url" json:"file_url,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Homework is a class-scoped assignment with a deadline.
type Homework struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HomeworkWithSubmissions decorates homework with the submissions the
// caller is allowed to see (all of them for the teacher, own for a student).
type HomeworkWithSubmissions struct {
	Homework
	Submissions []HomeworkSubmission `json:"submissions"`
}

// HomeworkSubmission is a student's answer to a homework item.
type HomeworkSubmission struct {
	ID          string    `db:"id" json:"id"`
	HomeworkID  string    `db:"homework_id" json:"homework_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Content     *string   `db:"content" json:"content,omitempty"`
	FileURL     *string   `db:"file_url" json:"file_url,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// Quiz is a class-scoped quiz. TimeLimit is minutes, nil for untimed.
type Quiz struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	TimeLimit   *int      `db:"time_limit" json:"time_limit,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// QuizQuestion is a multiple-choice question. CorrectIndex points into
// Options and is never serialised to students.
type QuizQuestion struct {
	ID           string         `db:"id" json:"id"`
	QuizID       string         `db:"quiz_id" json:"quiz_id"`
	Prompt       string         `db:"prompt" json:"prompt"`
	Options      pq.StringArray `db:"options" json:"options"`
	CorrectIndex int            `db:"correct_index" json:"-"`
	Position     int            `db:"position" json:"position"`
}

// QuizWithQuestions decorates a quiz with its questions, and with the
// caller's own results when the caller is a student.
type QuizWithQuestions struct {
	Quiz
	Questions []QuizQuestion `json:"questions"`
	Results   []QuizResult   `json:"results,omitempty"`
}

// QuizResult stores how many answers matched the stored correct options.
// No richer scoring semantics are promised.
type QuizResult struct {
	ID          string    `db:"id" json:"id"`
	QuizID      string    `db:"quiz_id" json:"quiz_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Score       int       `db:"score" json:"score"`
	Total       int       `db:"total" json:"total"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// Announcement is a class-scoped notice.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
