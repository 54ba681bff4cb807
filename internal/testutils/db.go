// Package testutils 提供测试共用的数据库与数据构造工具
package testutils

import (
	"fmt"
	"path/filepath"
	"testing"

	"postpulse/internal/db"
	"postpulse/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewDB 在临时目录中创建一个已迁移的 SQLite 数据库，测试结束时自动关闭。
// 单连接串行化写入，避免 SQLITE_BUSY。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return conn
}

// CreateUser 创建用户
func CreateUser(t testing.TB, conn *gorm.DB, email, passwordHash, role string) *models.User {
	t.Helper()

	user := &models.User{Name: email, Email: email, Password: passwordHash, Role: role}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreatePost 创建一篇已发布的文章
func CreatePost(t testing.TB, conn *gorm.DB, slug string) *models.Post {
	t.Helper()

	author := CreateUser(t, conn, slug+"-author@example.com", "x", models.RoleAdmin)
	post := &models.Post{
		Slug:      slug,
		AuthorID:  author.ID,
		Title:     "Post " + slug,
		Content:   "# " + slug + "\n\nhello",
		Published: true,
	}
	if err := conn.Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}
