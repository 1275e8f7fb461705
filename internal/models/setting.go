package models

import "time"

// Setting keys persisted in the settings table.
const (
	SettingSchoolName        = "school_name"
	SettingSchoolAddress     = "address"
	SettingSchoolPhone       = "phone"
	SettingSchoolEmail       = "email"
	SettingAcademicYearStart = "academic_year_start"
	SettingAcademicYearEnd   = "academic_year_end"
	SettingPassingGrade      = "passing_grade"
	SettingMaxGrade          = "max_grade"
	SettingGradeScale        = "grade_scale"
)

// Setting represents a persisted key/value entry.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolInfo groups the school identity settings.
type SchoolInfo struct {
	SchoolName string `json:"school_name" validate:"required,max=200"`
	Address    string `json:"address" validate:"max=500"`
	Phone      string `json:"phone" validate:"max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// AcademicYear bounds the current school year. End must be after Start.
type AcademicYear struct {
	StartDate *Date `json:"start_date" validate:"required"`
	EndDate   *Date `json:"end_date" validate:"required"`
}

// Grading scale defaults applied when nothing is stored yet.
const (
	DefaultPassingGrade = 10.0
	DefaultGradeScale   = "standard"
)

// GradingSystem holds the pass mark and the scale grades are reported on.
type GradingSystem struct {
	PassingGrade *float64 `json:"passing_grade" validate:"required,gte=0,lte=20"`
	MaxGrade     *float64 `json:"max_grade" validate:"omitempty,gt=0"`
	GradeScale   string   `json:"grade_scale" validate:"omitempty,max=50"`
}
