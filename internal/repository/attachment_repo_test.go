package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/internal/model"
	"github.com/qs3c/comment_go_server/internal/testutil"
)

func TestAttachmentRepository_Claim(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttachmentRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	attachment := testutil.TestAttachment(t, db, user.ID)

	ok, err := repo.Claim(ctx, attachment.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(ctx, attachment.ID)
	require.NoError(t, err)
	assert.True(t, found.IsClaimed())
	assert.Nil(t, found.ExpiresAt)

	// a second claim loses
	ok, err = repo.Claim(ctx, attachment.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttachmentRepository_Claim_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttachmentRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	attachment := testutil.TestAttachment(t, db, user.ID, testutil.WithExpiresAt(time.Now().Add(-time.Minute)))

	ok, err := repo.Claim(ctx, attachment.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(ctx, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentReserved, found.State)
}

func TestAttachmentRepository_Claim_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttachmentRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	attachment := testutil.TestAttachment(t, db, user.ID)

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Claim(ctx, attachment.ID, time.Now())
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestAttachmentRepository_GetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttachmentRepository(db)
	user := testutil.TestUser(t, db)
	a1 := testutil.TestAttachment(t, db, user.ID)
	a2 := testutil.TestAttachment(t, db, user.ID)

	found, err := repo.GetByIDs(context.Background(), []string{a1.ID, a2.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, a1.ID)
	assert.Contains(t, found, a2.ID)

	empty, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAttachmentRepository_DeleteReserved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAttachmentRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)

	expired := testutil.TestAttachment(t, db, user.ID, testutil.WithExpiresAt(time.Now().Add(-time.Hour)))
	claimed := testutil.TestAttachment(t, db, user.ID, testutil.WithClaimed())

	require.NoError(t, repo.DeleteReserved(ctx, expired.ID, time.Now()))
	assert.ErrorIs(t, repo.DeleteReserved(ctx, expired.ID, time.Now()), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteReserved(ctx, claimed.ID, time.Now()), gorm.ErrRecordNotFound)
}
