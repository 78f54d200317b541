package resource_test

import (
	"context"
	"sync"
	"testing"

	"stash/internal/auth"
	"stash/internal/resource"
	"stash/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_SetsOwner(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	u := testutil.CreateUser(t, gdb, "a@example.com", "pw", false, -1)

	res, err := svc.Create(context.Background(), u.ID, "user story content")
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, "user story content", res.Content)
	assert.Equal(t, u.ID, res.CreatedByID)
	assert.Equal(t, "a@example.com", res.CreatedBy.Email)
}

func TestCreate_Quota(t *testing.T) {
	for _, q := range []int64{0, 1, 3} {
		gdb := testutil.NewDB(t)
		svc := &resource.Service{DB: gdb}
		u := testutil.CreateUser(t, gdb, "q@example.com", "pw", false, q)
		ctx := context.Background()

		for i := int64(0); i < q; i++ {
			_, err := svc.Create(ctx, u.ID, "content")
			require.NoError(t, err, "quota %d attempt %d", q, i)
		}

		_, err := svc.Create(ctx, u.ID, "one too many")
		assert.ErrorIs(t, err, resource.ErrQuotaExceeded, "quota %d", q)

		n, err := svc.CountByOwner(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, q, n)
	}
}

func TestCreate_QuotaReadFromStore(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	u := testutil.CreateUser(t, gdb, "q@example.com", "pw", false, -1)
	ctx := context.Background()

	_, err := svc.Create(ctx, u.ID, "first")
	require.NoError(t, err)

	require.NoError(t, gdb.Model(&auth.User{}).Where("id = ?", u.ID).Update("quota", 1).Error)

	_, err = svc.Create(ctx, u.ID, "second")
	assert.ErrorIs(t, err, resource.ErrQuotaExceeded)
}

func TestCreate_QuotaConcurrent(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	u := testutil.CreateUser(t, gdb, "race@example.com", "pw", false, 3)

	const attempts = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, over int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), u.ID, "x")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, resource.ErrQuotaExceeded):
				over++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, attempts-3, over)

	n, err := svc.CountByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCreate_UnknownOwner(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}

	_, err := svc.Create(context.Background(), 999, "x")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestList_Scoped(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	ctx := context.Background()

	a := testutil.CreateUser(t, gdb, "a@example.com", "pw", false, -1)
	b := testutil.CreateUser(t, gdb, "b@example.com", "pw", false, -1)
	admin := testutil.CreateUser(t, gdb, "admin@example.com", "pw", true, -1)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, a.ID, "a")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, b.ID, "b")
	require.NoError(t, err)

	got, err := svc.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "a@example.com", r.CreatedBy.Email)
	}

	got, err = svc.List(ctx, b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b@example.com", got[0].CreatedBy.Email)

	got, err = svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Less(t, got[0].ID, got[1].ID)
	assert.Less(t, got[1].ID, got[2].ID)

	_, err = svc.List(ctx, nil)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestGetDelete(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "a@example.com", "pw", false, -1)

	res, err := svc.Create(ctx, u.ID, "content")
	require.NoError(t, err)

	got, err := svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "content", got.Content)
	assert.Equal(t, "a@example.com", got.CreatedBy.Email)

	require.NoError(t, svc.Delete(ctx, res.ID))

	_, err = svc.Get(ctx, res.ID)
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, res.ID), resource.ErrNotFound)
}

func TestDeleteByOwner(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := &resource.Service{DB: gdb}
	ctx := context.Background()
	a := testutil.CreateUser(t, gdb, "a@example.com", "pw", false, -1)
	b := testutil.CreateUser(t, gdb, "b@example.com", "pw", false, -1)

	for _, owner := range []uint64{a.ID, a.ID, b.ID} {
		_, err := svc.Create(ctx, owner, "x")
		require.NoError(t, err)
	}

	n, err := resource.DeleteByOwner(gdb, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := svc.CountByOwner(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}
