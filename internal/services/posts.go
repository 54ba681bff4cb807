package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postpulse/internal/models"
	"postpulse/internal/utils"

	"gorm.io/gorm"
)

// PostLookup 按 slug 查找已发布文章，是账本对内容系统的唯一依赖
type PostLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
}

// PostService 内容查询。只缓存渲染后的正文，不缓存计数。
type PostService struct {
	db       *gorm.DB
	rendered *utils.TTLCache[string, string]
}

func NewPostService(db *gorm.DB, cacheSize int, cacheTTL time.Duration) (*PostService, error) {
	cache, err := utils.NewTTLCache[string, string](cacheSize, cacheTTL)
	if err != nil {
		return nil, err
	}
	return &PostService{db: db, rendered: cache}, nil
}

func (s *PostService) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Where("slug = ? AND published = ?", slug, true).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}
	return &post, nil
}

// PostDetail 文章详情，正文已渲染为安全的 HTML
type PostDetail struct {
	models.Post
	ContentHTML string `json:"content_html"`
	Likes       int    `json:"likes"`
}

// Detail loads a published post with author and category and renders its
// markdown. Rendered HTML is cached per post revision.
func (s *PostService) Detail(ctx context.Context, slug string) (*PostDetail, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("slug = ? AND published = ?", slug, true).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable(err)
	}

	var likes int64
	if err := s.db.WithContext(ctx).Model(&models.Engagement{}).
		Where("post_id = ? AND kind = ?", post.ID, models.EngagementLike).
		Count(&likes).Error; err != nil {
		return nil, unavailable(err)
	}

	// 文章更新后 UpdatedAt 变化，旧缓存自然失效
	cacheKey := fmt.Sprintf("post:html:%d:%d", post.ID, post.UpdatedAt.UnixNano())
	html, ok := s.rendered.Get(cacheKey)
	if !ok {
		html = utils.RenderMarkdown(post.Content)
		s.rendered.Set(cacheKey, html)
	}

	return &PostDetail{Post: post, ContentHTML: html, Likes: int(likes)}, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListOptions 文章列表的筛选与分页
type ListOptions struct {
	Category string // 分类 slug，空表示全部
	Page     int
	PageSize int
}

func (o ListOptions) normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = defaultPageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
	return o
}

// PostPage 一页文章摘要，不含正文
type PostPage struct {
	Posts    []models.Post `json:"posts"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// 列表不返回正文
var summaryColumns = []string{
	"posts.id", "posts.slug", "posts.author_id", "posts.category_id",
	"posts.title", "posts.excerpt", "posts.image_url", "posts.published",
	"posts.views", "posts.created_at", "posts.updated_at",
}

// List 按发布时间倒序列出已发布文章，附带浏览量
func (s *PostService) List(ctx context.Context, opts ListOptions) (*PostPage, error) {
	opts = opts.normalize()

	query := s.db.WithContext(ctx).Model(&models.Post{}).Where("posts.published = ?", true)
	if opts.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("categories.slug = ?", opts.Category)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, unavailable(err)
	}

	posts := make([]models.Post, 0, opts.PageSize)
	err := query.
		Preload("Author").
		Preload("Category").
		Select(summaryColumns).
		Order("posts.created_at DESC, posts.id DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, unavailable(err)
	}

	return &PostPage{Posts: posts, Total: total, Page: opts.Page, PageSize: opts.PageSize}, nil
}

// CategorySummary 分类及其已发布文章数
type CategorySummary struct {
	models.Category
	PostCount int64 `json:"post_count"`
}

// Categories 按名称列出所有分类
func (s *PostService) Categories(ctx context.Context) ([]CategorySummary, error) {
	out := make([]CategorySummary, 0)
	err := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.published = ?", true).
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}
