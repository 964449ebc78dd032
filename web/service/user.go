package service

import (
	"fmt"
	"strings"

	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/crypto"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Register creates an account. An email that is already taken yields
// ErrDuplicateAccount and nothing is written.
func (s *UserService) Register(email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)

	exists, err := s.emailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(name),
	}
	if err := s.db.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Infof("registered user %d", user.Id)
	return user, nil
}

func (s *UserService) emailExists(email string) (bool, error) {
	var count int64
	err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup email: %w", err)
	}
	return count > 0, nil
}

// Login returns the account for email if password matches.
func (s *UserService) Login(email, password string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Model(model.User{}).
		Where("email = ?", normalizeEmail(email)).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// GetUser returns nil without error when the id no longer exists.
func (s *UserService) GetUser(id int) (*model.User, error) {
	if id <= 0 {
		return nil, nil
	}
	user := &model.User{}
	err := s.db.First(user, id).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&model.User{}).Count(&count).Error
	return count, err
}
