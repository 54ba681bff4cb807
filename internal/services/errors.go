package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 文章不存在（或未发布）
	ErrNotFound = errors.New("post not found")
	// ErrIdentityRequired 点赞请求没有任何可用的访客身份信号
	ErrIdentityRequired = errors.New("client identity is required")
	// ErrStoreUnavailable 存储层不可用，调用方可以重试
	ErrStoreUnavailable = errors.New("engagement store unavailable")

	// errConflict 唯一索引冲突：并发请求已经写入了同一条记录。只在 services 内部使用。
	errConflict = errors.New("engagement already recorded")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// sqlite drivers without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
