package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/testutil"
)

func TestChannelRepository_Upsert_Creates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	ctx := context.Background()

	channel, err := repo.Upsert(ctx, "https://example.com/posts/1")
	require.NoError(t, err)
	assert.NotZero(t, channel.ID)
	assert.Equal(t, "https://example.com/posts/1", channel.URL)

	count, err := repo.CountComments(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestChannelRepository_Upsert_ReturnsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	ctx := context.Background()
	existing := testutil.TestChannel(t, db, "https://example.com/posts/2")

	channel, err := repo.Upsert(ctx, existing.URL)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, channel.ID)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestChannelRepository_Upsert_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channel, err := repo.Upsert(ctx, "https://example.com/race")
			errs[i] = err
			if err == nil {
				ids[i] = channel.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestChannelRepository_AppendComment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	ctx := context.Background()
	channel := testutil.TestChannel(t, db, "https://example.com/posts/3")

	for _, id := range []int64{30, 10, 20} {
		require.NoError(t, repo.AppendComment(ctx, channel.ID, id))
	}

	ids, err := repo.CommentIDs(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 10, 20}, ids)

	count, err := repo.CountComments(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestChannelRepository_AppendComment_OnlyOneChannel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	ctx := context.Background()
	a := testutil.TestChannel(t, db, "https://example.com/a")
	b := testutil.TestChannel(t, db, "https://example.com/b")

	require.NoError(t, repo.AppendComment(ctx, a.ID, 1))
	assert.Error(t, repo.AppendComment(ctx, b.ID, 1))
}

func TestChannelRepository_Upsert_StoreFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	storeErr := errors.New("connection refused")
	mock.ExpectQuery("SELECT \\* FROM `channels`").WillReturnError(storeErr)

	repo := NewChannelRepository(db)
	_, err = repo.Upsert(context.Background(), "https://example.com/down")
	assert.ErrorIs(t, err, storeErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelRepository_GetByURL_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChannelRepository(db)
	_, err := repo.GetByURL(context.Background(), "https://example.com/none")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	db.Model(&model.Channel{}).Count(&count)
	assert.Zero(t, count)
}
