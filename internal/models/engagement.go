package models

import (
	"time"
)

// 互动类型
const (
	EngagementView = "view"
	EngagementLike = "like"
)

// Engagement 记录某个访客对某篇文章的一次互动（浏览或点赞）。
// 行本身就是去重标记：同一 (post, kind, identity) 至多一行，由唯一索引保证。
// view 行只增不删；like 行在取消点赞时删除，再次点赞时重新插入。
type Engagement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"not null;uniqueIndex:idx_engagement_identity,priority:1;index" json:"post_id"`
	Post          Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Kind          string    `gorm:"size:8;not null;uniqueIndex:idx_engagement_identity,priority:2" json:"kind"`
	IdentityKind  string    `gorm:"size:8;not null;uniqueIndex:idx_engagement_identity,priority:3" json:"identity_kind"`
	IdentityValue string    `gorm:"size:320;not null;uniqueIndex:idx_engagement_identity,priority:4" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
