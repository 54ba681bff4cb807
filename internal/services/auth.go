package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postpulse/internal/models"
	"postpulse/internal/utils"

	"gorm.io/gorm"
)

var (
	// ErrInvalidLogin 邮箱或密码错误
	ErrInvalidLogin = errors.New("invalid email or password")
	// ErrEmailTaken 注册时邮箱已存在
	ErrEmailTaken = errors.New("user already exists")
)

// UserService 登录与用户查询
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate 校验邮箱和密码
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, unavailable(err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidLogin
	}
	return &user, nil
}

// Register 创建普通用户，邮箱统一小写
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:     strings.TrimSpace(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: hash,
		Role:     models.RolePublic,
	}
	// 唯一索引兜底并发注册
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, unavailable(err)
	}
	return &user, nil
}

// FindByID 返回用户，不存在时返回 ErrNotFound
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}
	return &user, nil
}
