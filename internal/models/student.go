package models

import "time"

// StudentStatus tracks the lifecycle of a student record.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
)

// Student represents a learner registered in the school.
type Student struct {
	ID             int64         `db:"id" json:"id"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          *string       `db:"email" json:"email,omitempty"`
	Phone          *string       `db:"phone" json:"phone,omitempty"`
	BirthDate      *Date         `db:"birth_date" json:"birth_date,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	ParentName     *string       `db:"parent_name" json:"parent_name,omitempty"`
	ParentPhone    *string       `db:"parent_phone" json:"parent_phone,omitempty"`
	ParentEmail    *string       `db:"parent_email" json:"parent_email,omitempty"`
	ClassID        *int64        `db:"class_id" json:"class_id,omitempty"`
	ProfilePicture *string       `db:"profile_picture" json:"profile_picture,omitempty"`
	EnrollmentDate Date          `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail adds the owning class name for listings.
type StudentDetail struct {
	Student
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
// A nil Status lists active students only.
type StudentFilter struct {
	Search    string
	ClassID   *int64
	Status    *StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentInput is the create/update payload for a student.
type StudentInput struct {
	FirstName      string         `json:"first_name" validate:"required,max=100"`
	LastName       string         `json:"last_name" validate:"required,max=100"`
	Email          *string        `json:"email" validate:"omitempty,email"`
	Phone          *string        `json:"phone" validate:"omitempty,max=32"`
	BirthDate      *Date          `json:"birth_date"`
	Address        *string        `json:"address"`
	ParentName     *string        `json:"parent_name"`
	ParentPhone    *string        `json:"parent_phone" validate:"omitempty,max=32"`
	ParentEmail    *string        `json:"parent_email" validate:"omitempty,email"`
	ClassID        *int64         `json:"class_id" validate:"required,gt=0"`
	EnrollmentDate *Date          `json:"enrollment_date"`
	Status         *StudentStatus `json:"status" validate:"omitempty,oneof=active inactive graduated"`
}
