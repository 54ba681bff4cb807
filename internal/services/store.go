package services

import (
	"context"
	"errors"
	"fmt"

	"postpulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementStore 互动记录的持久化接口。
// 所有写操作依赖 (post_id, kind, identity_kind, identity_value) 唯一索引，
// 冲突时返回 errConflict，其他失败一律包装为 ErrStoreUnavailable。
type EngagementStore interface {
	Exists(ctx context.Context, postID uint, kind string, id Identity) (bool, error)
	// InsertView 在同一事务内插入浏览记录并递增文章的 views，返回递增后的值
	InsertView(ctx context.Context, postID uint, id Identity) (int, error)
	ViewCount(ctx context.Context, postID uint) (int, error)
	// RecountViews 按记录数重写 views 计数器
	RecountViews(ctx context.Context, postID uint) (int, error)
	InsertLike(ctx context.Context, postID uint, id Identity) error
	// DeleteLike 删除点赞记录，返回是否真的删掉了一行
	DeleteLike(ctx context.Context, postID uint, id Identity) (bool, error)
	CountLikes(ctx context.Context, postID uint) (int, error)
}

// GormStore 基于 gorm 的 EngagementStore 实现
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (s *GormStore) identityQuery(tx *gorm.DB, postID uint, kind string, id Identity) *gorm.DB {
	return tx.Where("post_id = ? AND kind = ? AND identity_kind = ? AND identity_value = ?",
		postID, kind, string(id.Kind), id.Value)
}

func (s *GormStore) Exists(ctx context.Context, postID uint, kind string, id Identity) (bool, error) {
	var existing models.Engagement
	err := s.identityQuery(s.db.WithContext(ctx), postID, kind, id).Take(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, unavailable(err)
}

func (s *GormStore) InsertView(ctx context.Context, postID uint, id Identity) (int, error) {
	var views int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.Engagement{
			PostID:        postID,
			Kind:          models.EngagementView,
			IdentityKind:  string(id.Kind),
			IdentityValue: id.Value,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		// 记录与计数器同一事务提交，不会出现只加计数不落记录的情况
		if err := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).
			Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).Select("views").Scan(&views).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errConflict
		}
		return 0, unavailable(err)
	}
	return views, nil
}

func (s *GormStore) ViewCount(ctx context.Context, postID uint) (int, error) {
	var views int
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Select("views").
		Scan(&views).Error; err != nil {
		return 0, unavailable(err)
	}
	return views, nil
}

func (s *GormStore) RecountViews(ctx context.Context, postID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先锁住文章行：InsertView 也要更新这一行，计数期间不会有新的浏览插进来
		if err := lockPost(tx, postID); err != nil {
			return err
		}
		if err := tx.Model(&models.Engagement{}).
			Where("post_id = ? AND kind = ?", postID, models.EngagementView).
			Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views", count).
			Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, unavailable(err)
	}
	return int(count), nil
}

// lockPost 对文章行加 SELECT ... FOR UPDATE
func lockPost(tx *gorm.DB, postID uint) error {
	var post models.Post
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&post, postID).Error
}

func (s *GormStore) InsertLike(ctx context.Context, postID uint, id Identity) error {
	record := models.Engagement{
		PostID:        postID,
		Kind:          models.EngagementLike,
		IdentityKind:  string(id.Kind),
		IdentityValue: id.Value,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return errConflict
		}
		return unavailable(err)
	}
	return nil
}

func (s *GormStore) DeleteLike(ctx context.Context, postID uint, id Identity) (bool, error) {
	res := s.identityQuery(s.db.WithContext(ctx), postID, models.EngagementLike, id).
		Delete(&models.Engagement{})
	if res.Error != nil {
		return false, unavailable(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CountLikes(ctx context.Context, postID uint) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Engagement{}).
		Where("post_id = ? AND kind = ?", postID, models.EngagementLike).
		Count(&count).Error; err != nil {
		return 0, unavailable(err)
	}
	return int(count), nil
}
