package services

import (
	"context"
	"testing"

	"postpulse/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// queryLog 记录经过 gorm 查询回调的表名以及是否带 FOR UPDATE
type queryLog struct {
	tables []string
	locked []bool
}

func recordQueries(t *testing.T, conn *gorm.DB) *queryLog {
	t.Helper()
	log := &queryLog{}
	err := conn.Callback().Query().Before("gorm:query").Register("test:record_locks", func(tx *gorm.DB) {
		_, locked := tx.Statement.Clauses["FOR"]
		log.tables = append(log.tables, tx.Statement.Table)
		log.locked = append(log.locked, locked)
	})
	require.NoError(t, err)
	return log
}

func TestGormStore_RecountViewsLocksPostFirst(t *testing.T) {
	conn := testutils.NewDB(t)
	post := testutils.CreatePost(t, conn, "recount")
	store := NewGormStore(conn)
	ctx := context.Background()

	for _, token := range []string{"a", "b"} {
		_, err := store.InsertView(ctx, post.ID, Identity{Kind: IdentityClient, Value: token})
		require.NoError(t, err)
	}
	require.NoError(t, conn.Model(post).UpdateColumn("views", 9).Error)

	log := recordQueries(t, conn)
	views, err := store.RecountViews(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, views)

	// 文章行锁必须先于记录计数
	require.GreaterOrEqual(t, len(log.tables), 2)
	assert.Equal(t, "posts", log.tables[0])
	assert.True(t, log.locked[0])
	assert.Equal(t, "engagements", log.tables[1])
	assert.False(t, log.locked[1])

	count, err := store.ViewCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGormStore_RecountViewsMissingPost(t *testing.T) {
	conn := testutils.NewDB(t)
	store := NewGormStore(conn)

	_, err := store.RecountViews(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
