package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(student *model.Student) error {
	if err := r.db.Create(student).Error; err != nil {
		return fmt.Errorf("create student failed: %w", err)
	}
	return nil
}

func (r *StudentRepository) GetByUserID(userID uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("user_id = ?", userID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query student by user id failed: %w", err)
	}
	return &student, nil
}

func (r *StudentRepository) GetByStudentID(studentID string) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("student_id = ?", studentID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query student by student id failed: %w", err)
	}
	return &student, nil
}

func (r *StudentRepository) GetByEmail(email string) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("email = ?", email).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query student by email failed: %w", err)
	}
	return &student, nil
}

func (r *StudentRepository) Update(student *model.Student) error {
	if err := r.db.Save(student).Error; err != nil {
		return fmt.Errorf("update student failed: %w", err)
	}
	return nil
}

// ListActive returns active students, most recently registered first.
func (r *StudentRepository) ListActive() ([]model.Student, error) {
	var list []model.Student
	if err := r.db.Where("is_active = ?", true).Order("registration_date DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list active students failed: %w", err)
	}
	return list, nil
}
