package models

import "time"

// Class is owned by exactly one teacher. ClassCode is globally unique,
// immutable once assigned, and is the capability students redeem to enroll.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	ClassCode string    `db:"class_code" json:"class_code"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSummary is a class with content and roster counts for teacher listings.
type ClassSummary struct {
	Class
	StudentCount      int `db:"student_count" json:"student_count"`
	LessonCount       int `db:"lesson_count" json:"lesson_count"`
	HomeworkCount     int `db:"homework_count" json:"homework_count"`
	QuizCount         int `db:"quiz_count" json:"quiz_count"`
	AnnouncementCount int `db:"announcement_count" json:"announcement_count"`
}

// ClassDetail is a class with its owning teacher and roster.
type ClassDetail struct {
	ClassSummary
	TeacherName  string        `db:"teacher_name" json:"teacher_name"`
	TeacherEmail string        `db:"teacher_email" json:"teacher_email"`
	Students     []RosterEntry `json:"students"`
}

// Enrollment records a student's membership in a class. The
// (student_id, class_id) pair is unique.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RosterEntry is one enrolled student as seen by the owning teacher.
// The parent code is exposed here so teachers can hand it to guardians.
type RosterEntry struct {
	StudentID  string    `db:"student_id" json:"student_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	ParentCode *string   `db:"parent_code" json:"parent_code,omitempty"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
}
