package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postpulse/internal/models"
	"postpulse/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AdminSeed 启动时确保存在的默认超级管理员
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// Init 连接 PostgreSQL、迁移表结构并写入初始数据
func Init(dsn string, admin AdminSeed) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	slog.Info("database migration completed")

	if err := Seed(conn, admin); err != nil {
		return nil, err
	}

	return conn, nil
}

// Open 打开连接。TranslateError 让唯一索引冲突统一表现为 gorm.ErrDuplicatedKey。
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Migrate 创建/更新表结构，包括互动记录的复合唯一索引
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Engagement{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Seed 写入默认分类和超级管理员，已存在时跳过
func Seed(conn *gorm.DB, admin AdminSeed) error {
	seedCategories(conn)

	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	var existing models.User
	err := conn.Where("email = ?", email).Take(&existing).Error
	if err == nil {
		slog.Info("super admin already exists", "email", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up super admin: %w", err)
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	user := models.User{
		Name:     admin.Name,
		Email:    email,
		Password: hash,
		Role:     models.RoleSuperAdmin,
	}
	if err := conn.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}
	slog.Warn("default super admin created, change the password after first login", "email", email)
	return nil
}

func seedCategories(conn *gorm.DB) {
	var count int64
	conn.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return
	}

	categories := []models.Category{
		{Name: "Engineering", Slug: "engineering", Description: "Build notes and deep dives"},
		{Name: "Projects", Slug: "projects", Description: "Things shipped"},
		{Name: "Life", Slug: "life", Description: "Everything else"},
	}
	for _, category := range categories {
		if err := conn.Create(&category).Error; err != nil {
			slog.Error("failed to create category", "name", category.Name, "error", err)
		}
	}
	slog.Info("initial categories created")
}

// slogWriter 把 gorm 日志转发到 slog
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}
