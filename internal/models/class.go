package models

import "time"

// Class represents a class group of students.
type Class struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Level       string    `db:"level" json:"level"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the number of active students.
type ClassDetail struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassInput is the create payload for a class.
type ClassInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Level       string `json:"level" validate:"required,max=50"`
	Description string `json:"description"`
}
