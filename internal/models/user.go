package models

import "time"

// UserRole enumerates account roles. Role is set at registration and
// never changes for the lifetime of the account.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
)

// Valid reports whether the role is one of the known account roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// User represents an account. ParentCode is populated only for students
// and is the shareable capability a parent redeems to link to them.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	ParentCode   *string   `db:"parent_code" json:"parent_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	ParentCode *string  `json:"parent_code,omitempty"`
}

// Info returns the public projection of the user.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		ParentCode: u.ParentCode,
	}
}

// ParentLink connects a parent account to a student account. Links are
// auto-approved at creation; the approved flag exists so an approval
// step can be introduced without a schema change.
type ParentLink struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Approved  bool      `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChildClass summarises one class a linked child belongs to.
type ChildClass struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Grade       string `db:"grade" json:"grade"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ChildSummary is one linked child with their class memberships.
type ChildSummary struct {
	ID       string       `db:"id" json:"id"`
	Name     string       `db:"name" json:"name"`
	Email    string       `db:"email" json:"email"`
	LinkedAt time.Time    `db:"linked_at" json:"linked_at"`
	Classes  []ChildClass `json:"classes"`
}
