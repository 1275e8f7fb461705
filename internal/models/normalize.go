package models

import "strings"

// trimOptional trims v and maps a blank value to nil, so optional unique
// columns store NULL rather than an empty string.
func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Normalize trims the payload. Call it before validation so that padded
// e-mails pass and blank required names fail.
func (in *StudentInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = trimOptional(in.Email)
	in.Phone = trimOptional(in.Phone)
	in.Address = trimOptional(in.Address)
	in.ParentName = trimOptional(in.ParentName)
	in.ParentPhone = trimOptional(in.ParentPhone)
	in.ParentEmail = trimOptional(in.ParentEmail)
}

// Normalize trims the payload before validation.
func (in *TeacherInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = trimOptional(in.Phone)
	in.Speciality = trimOptional(in.Speciality)
}

// Normalize trims the payload before validation.
func (in *ClassInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Level = strings.TrimSpace(in.Level)
	in.Description = strings.TrimSpace(in.Description)
}

// Normalize trims the payload and upper-cases the subject code.
func (in *SubjectInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Description = strings.TrimSpace(in.Description)
}

// Normalize trims the payload before validation.
func (in *CourseInput) Normalize() {
	in.Semester = strings.TrimSpace(in.Semester)
}

// Normalize trims the payload before validation.
func (in *GradeInput) Normalize() {
	in.Comment = strings.TrimSpace(in.Comment)
}

// Normalize trims the payload before validation.
func (in *SchoolInfo) Normalize() {
	in.SchoolName = strings.TrimSpace(in.SchoolName)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
}
