package models

import "time"

// TeacherStatus tracks whether a teacher is still employed.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "active"
	TeacherStatusInactive TeacherStatus = "inactive"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID         int64         `db:"id" json:"id"`
	UserID     *int64        `db:"user_id" json:"user_id,omitempty"`
	FirstName  string        `db:"first_name" json:"first_name"`
	LastName   string        `db:"last_name" json:"last_name"`
	Email      string        `db:"email" json:"email"`
	Phone      *string       `db:"phone" json:"phone,omitempty"`
	Speciality *string       `db:"speciality" json:"speciality,omitempty"`
	HireDate   Date          `db:"hire_date" json:"hire_date"`
	Status     TeacherStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
// A nil Status lists active teachers only.
type TeacherFilter struct {
	Search    string
	Status    *TeacherStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherInput is the create/update payload for a teacher. The form field
// subject_specialty maps onto the speciality column.
type TeacherInput struct {
	FirstName  string         `json:"first_name" validate:"required,max=100"`
	LastName   string         `json:"last_name" validate:"required,max=100"`
	Email      string         `json:"email" validate:"required,email"`
	Phone      *string        `json:"phone" validate:"omitempty,max=32"`
	Speciality *string        `json:"subject_specialty"`
	HireDate   *Date          `json:"hire_date"`
	UserID     *int64         `json:"user_id" validate:"omitempty,gt=0"`
	Status     *TeacherStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}
