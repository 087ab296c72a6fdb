package model

import "time"

// Student is the profile attached to a registered user account.
type Student struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	StudentID        string    `gorm:"size:20;not null;uniqueIndex" json:"student_id"`
	FirstName        string    `gorm:"size:100;not null" json:"first_name"`
	LastName         string    `gorm:"size:100;not null" json:"last_name"`
	Email            string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PhoneNumber      string    `gorm:"size:15;not null" json:"phone_number"`
	DateOfBirth      string    `gorm:"size:10;not null" json:"date_of_birth"` // YYYY-MM-DD
	Department       string    `gorm:"size:100;not null" json:"department"`
	YearOfStudy      int       `gorm:"not null" json:"year_of_study"`
	RegistrationDate time.Time `gorm:"autoCreateTime" json:"registration_date"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
}
