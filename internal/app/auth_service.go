package app

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"docqa/internal/model"
	"docqa/internal/pkg/jwtutil"
	"docqa/internal/repository"
)

var (
	studentIDPattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	phonePattern     = regexp.MustCompile(`^\+?1?\d{9,15}$`)
	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type AuthService struct {
	userRepo      *repository.UserRepository
	studentRepo   *repository.StudentRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(
	userRepo *repository.UserRepository,
	studentRepo *repository.StudentRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		studentRepo:   studentRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	StudentID       string
	FirstName       string
	LastName        string
	PhoneNumber     string
	DateOfBirth     string
	Department      string
	YearOfStudy     int
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token   string
	User    *model.User
	Student *model.Student
}

// Register creates the user account and its student profile. If the
// profile insert fails the freshly created user is removed again, so a
// half-registered account never survives.
func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	studentID := strings.TrimSpace(input.StudentID)

	if username == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}
	if password != strings.TrimSpace(input.ConfirmPassword) {
		return nil, ErrPasswordMismatch
	}
	if !studentIDPattern.MatchString(studentID) {
		return nil, fmt.Errorf("%w: student id must contain only uppercase letters and numbers", ErrInvalidInput)
	}
	if !phonePattern.MatchString(strings.TrimSpace(input.PhoneNumber)) {
		return nil, fmt.Errorf("%w: phone number must be digits with optional leading +, 9 to 15 digits", ErrInvalidInput)
	}
	if !datePattern.MatchString(strings.TrimSpace(input.DateOfBirth)) {
		return nil, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrInvalidInput)
	}
	if input.YearOfStudy < 1 || input.YearOfStudy > 5 {
		return nil, fmt.Errorf("%w: year_of_study must be between 1 and 5", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, ErrInvalidInput
	}

	if existing, err := s.userRepo.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameExists
	}
	if existing, err := s.userRepo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailExists
	}
	if existing, err := s.studentRepo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailExists
	}
	if existing, err := s.studentRepo.GetByStudentID(studentID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrStudentIDExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	student := &model.Student{
		UserID:      user.ID,
		StudentID:   studentID,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       email,
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		DateOfBirth: strings.TrimSpace(input.DateOfBirth),
		Department:  strings.TrimSpace(input.Department),
		YearOfStudy: input.YearOfStudy,
		IsActive:    true,
	}
	if err := s.studentRepo.Create(student); err != nil {
		_ = s.userRepo.Delete(user.ID)
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, Student: student}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Refresh exchanges a still-valid token for a fresh one.
func (s *AuthService) Refresh(token string) (string, error) {
	claims, err := jwtutil.ParseToken(s.jwtSecret, token)
	if err != nil {
		return "", ErrInvalidCredential
	}
	return jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, claims.UserID, claims.Username)
}
