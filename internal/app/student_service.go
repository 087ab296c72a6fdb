package app

import (
	"fmt"
	"strings"

	"docqa/internal/model"
	"docqa/internal/repository"
)

// StudentService manages the student profile attached to each account.
type StudentService struct {
	studentRepo *repository.StudentRepository
}

func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// ProfileUpdateInput carries the editable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileUpdateInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	DateOfBirth *string
	Department  *string
	YearOfStudy *int
}

func (s *StudentService) Profile(userID uint) (*model.Student, error) {
	student, err := s.studentRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrProfileNotFound
	}
	return student, nil
}

func (s *StudentService) UpdateProfile(userID uint, input ProfileUpdateInput) (*model.Student, error) {
	student, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		student.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		student.LastName = name
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if !phonePattern.MatchString(phone) {
			return nil, fmt.Errorf("%w: phone number must be digits with optional leading +, 9 to 15 digits", ErrInvalidInput)
		}
		student.PhoneNumber = phone
	}
	if input.DateOfBirth != nil {
		dob := strings.TrimSpace(*input.DateOfBirth)
		if !datePattern.MatchString(dob) {
			return nil, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrInvalidInput)
		}
		student.DateOfBirth = dob
	}
	if input.Department != nil {
		student.Department = strings.TrimSpace(*input.Department)
	}
	if input.YearOfStudy != nil {
		if *input.YearOfStudy < 1 || *input.YearOfStudy > 5 {
			return nil, fmt.Errorf("%w: year_of_study must be between 1 and 5", ErrInvalidInput)
		}
		student.YearOfStudy = *input.YearOfStudy
	}

	if err := s.studentRepo.Update(student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) ListActive() ([]model.Student, error) {
	return s.studentRepo.ListActive()
}
