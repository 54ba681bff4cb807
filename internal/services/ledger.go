package services

import (
	"context"
	"errors"
	"log/slog"

	"postpulse/internal/metrics"
	"postpulse/internal/models"
)

// ViewResult 浏览记录的结果。Viewed 表示本次请求是否真正计入了浏览量。
type ViewResult struct {
	Viewed bool `json:"viewed"`
	Views  int  `json:"views"`
}

// LikeResult 点赞切换后的状态，Count 总是从记录集重新统计
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// LikeState 点赞查询结果
type LikeState struct {
	Count    int  `json:"count"`
	HasLiked bool `json:"hasLiked"`
}

// Ledger 匿名互动账本：按访客身份去重的浏览计数与点赞切换。
// 自身不持有任何互动状态，所有状态都在 EngagementStore 中。
type Ledger struct {
	posts    PostLookup
	store    EngagementStore
	resolver IdentityResolver
	metrics  metrics.Recorder
	logger   *slog.Logger
}

func NewLedger(posts PostLookup, store EngagementStore, resolver IdentityResolver, rec metrics.Recorder, logger *slog.Logger) *Ledger {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		posts:    posts,
		store:    store,
		resolver: resolver,
		metrics:  rec,
		logger:   logger,
	}
}

func (l *Ledger) resolve(s Signals) (Identity, bool) {
	id, ok := l.resolver.Resolve(s)
	if ok {
		l.metrics.ObserveIdentity(string(id.Kind))
	} else {
		l.metrics.ObserveIdentity("none")
	}
	return id, ok
}

// RecordView 每个身份对每篇文章至多计一次浏览。
// 无法识别身份的请求不计数，也不报错，只返回当前浏览量。
func (l *Ledger) RecordView(ctx context.Context, slug string, s Signals) (ViewResult, error) {
	post, err := l.posts.FindBySlug(ctx, slug)
	if err != nil {
		return ViewResult{}, err
	}

	id, ok := l.resolve(s)
	if !ok {
		l.metrics.ObserveView(metrics.ViewAnonymous)
		return ViewResult{Viewed: false, Views: post.Views}, nil
	}

	exists, err := l.store.Exists(ctx, post.ID, models.EngagementView, id)
	if err != nil {
		return ViewResult{}, err
	}
	if exists {
		l.metrics.ObserveView(metrics.ViewDuplicate)
		return ViewResult{Viewed: false, Views: post.Views}, nil
	}

	views, err := l.store.InsertView(ctx, post.ID, id)
	if errors.Is(err, errConflict) {
		// 并发的首次浏览抢先写入了记录，本次按"已浏览"处理
		l.metrics.ObserveConflict(models.EngagementView)
		l.metrics.ObserveView(metrics.ViewDuplicate)
		l.logger.DebugContext(ctx, "view insert lost race", "post_id", post.ID, "identity_kind", id.Kind)
		views, err = l.store.ViewCount(ctx, post.ID)
		if err != nil {
			return ViewResult{}, err
		}
		return ViewResult{Viewed: false, Views: views}, nil
	}
	if err != nil {
		return ViewResult{}, err
	}

	l.metrics.ObserveView(metrics.ViewNew)
	return ViewResult{Viewed: true, Views: views}, nil
}

// ViewCount 返回文章当前的浏览量
func (l *Ledger) ViewCount(ctx context.Context, slug string) (int, error) {
	post, err := l.posts.FindBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}
	return post.Views, nil
}

// ReconcileViews rewrites the denormalized counter from the view records.
func (l *Ledger) ReconcileViews(ctx context.Context, slug string) (int, error) {
	post, err := l.posts.FindBySlug(ctx, slug)
	if err != nil {
		return 0, err
	}
	views, err := l.store.RecountViews(ctx, post.ID)
	if err != nil {
		return 0, err
	}
	if views != post.Views {
		l.logger.InfoContext(ctx, "view counter reconciled", "post_id", post.ID, "before", post.Views, "after", views)
	}
	return views, nil
}

// ToggleLike 切换点赞：已点赞则删除记录，未点赞则创建记录。
// 必须能识别出身份，否则返回 ErrIdentityRequired。
func (l *Ledger) ToggleLike(ctx context.Context, slug string, s Signals) (LikeResult, error) {
	post, err := l.posts.FindBySlug(ctx, slug)
	if err != nil {
		return LikeResult{}, err
	}

	id, ok := l.resolve(s)
	if !ok {
		return LikeResult{}, ErrIdentityRequired
	}

	exists, err := l.store.Exists(ctx, post.ID, models.EngagementLike, id)
	if err != nil {
		return LikeResult{}, err
	}

	var liked bool
	if exists {
		removed, err := l.store.DeleteLike(ctx, post.ID, id)
		if err != nil {
			return LikeResult{}, err
		}
		if !removed {
			// 另一个请求已经取消了点赞，结果相同
			l.metrics.ObserveConflict(models.EngagementLike)
		}
		liked = false
	} else {
		err := l.store.InsertLike(ctx, post.ID, id)
		switch {
		case errors.Is(err, errConflict):
			// 另一个请求已经点赞，视为记录已存在
			l.metrics.ObserveConflict(models.EngagementLike)
		case err != nil:
			return LikeResult{}, err
		}
		liked = true
	}

	count, err := l.store.CountLikes(ctx, post.ID)
	if err != nil {
		return LikeResult{}, err
	}

	if liked {
		l.metrics.ObserveLike(metrics.LikeLiked)
	} else {
		l.metrics.ObserveLike(metrics.LikeUnliked)
	}
	return LikeResult{Liked: liked, Count: count}, nil
}

// LikeState 返回点赞总数以及当前访客是否已点赞
func (l *Ledger) LikeState(ctx context.Context, slug string, s Signals) (LikeState, error) {
	post, err := l.posts.FindBySlug(ctx, slug)
	if err != nil {
		return LikeState{}, err
	}

	count, err := l.store.CountLikes(ctx, post.ID)
	if err != nil {
		return LikeState{}, err
	}

	id, ok := l.resolver.Resolve(s)
	if !ok {
		return LikeState{Count: count}, nil
	}

	hasLiked, err := l.store.Exists(ctx, post.ID, models.EngagementLike, id)
	if err != nil {
		return LikeState{}, err
	}
	return LikeState{Count: count, HasLiked: hasLiked}, nil
}
