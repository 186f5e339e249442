package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

func seedUsers(t *testing.T, st *Store, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, len(names))
	for i, n := range names {
		id, err := st.Users.Create(context.Background(), newUser(n))
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func follow(t *testing.T, st *Store, from, to int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Follows.Create(ctx, from, to))
	require.NoError(t, st.Users.AdjustFollowCounts(ctx, from, to, 1))
}

func TestMarkDeletedCascadesEdgesAndCounters(t *testing.T) {
	st := NewStore(testutil.NewDB(t), SequenceOptions{})
	ctx := context.Background()
	ids := seedUsers(t, st, "a", "b", "c")
	a, b, c := ids[0], ids[1], ids[2]

	follow(t, st, a, b)
	follow(t, st, c, a)
	follow(t, st, b, c)

	require.NoError(t, st.Transaction(ctx, func(tx *Store) error { return tx.Users.MarkDeleted(ctx, a) }))

	ua, err := st.Users.GetByID(ctx, a)
	require.NoError(t, err)
	assert.True(t, ua.IsDeleted)
	assert.Zero(t, ua.FollowerCount)
	assert.Zero(t, ua.FollowingCount)

	ub, _ := st.Users.GetByID(ctx, b)
	uc, _ := st.Users.GetByID(ctx, c)
	assert.Equal(t, int64(0), ub.FollowerCount)
	assert.Equal(t, int64(1), ub.FollowingCount)
	assert.Equal(t, int64(1), uc.FollowerCount)
	assert.Equal(t, int64(0), uc.FollowingCount)

	left, err := st.Follows.FollowingIDs(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{c}, left)
}

func TestAdjustFollowCountsFloorsAtZero(t *testing.T) {
	st := NewStore(testutil.NewDB(t), SequenceOptions{})
	ctx := context.Background()
	ids := seedUsers(t, st, "a", "b")

	require.NoError(t, st.Users.AdjustFollowCounts(ctx, ids[0], ids[1], -1))
	ua, _ := st.Users.GetByID(ctx, ids[0])
	ub, _ := st.Users.GetByID(ctx, ids[1])
	assert.Zero(t, ua.FollowingCount)
	assert.Zero(t, ub.FollowerCount)
}

func TestLockActiveSkipsDeleted(t *testing.T) {
	st := NewStore(testutil.NewDB(t), SequenceOptions{})
	ctx := context.Background()
	ids := seedUsers(t, st, "a", "b")
	require.NoError(t, st.Users.MarkDeleted(ctx, ids[1]))

	users, err := st.Users.LockActive(ctx, ids[1], ids[0])
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ids[0], users[0].ID)
}

func TestUpdateProfileIgnoresDeleted(t *testing.T) {
	st := NewStore(testutil.NewDB(t), SequenceOptions{})
	ctx := context.Background()
	ids := seedUsers(t, st, "a")
	age := 41
	n, err := st.Users.UpdateProfile(ctx, ids[0], nil, &age)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, st.Users.MarkDeleted(ctx, ids[0]))
	n, err = st.Users.UpdateProfile(ctx, ids[0], nil, &age)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestActiveFollowCountsUsesLiveEdges(t *testing.T) {
	st := NewStore(testutil.NewDB(t), SequenceOptions{})
	ctx := context.Background()
	ids := seedUsers(t, st, "a", "b", "c")
	require.NoError(t, st.Follows.CreateInBatches(ctx, []model.Follow{
		{FollowerID: ids[0], FolloweeID: ids[1]},
		{FollowerID: ids[2], FolloweeID: ids[1]},
		{FollowerID: ids[1], FolloweeID: ids[0]},
	}))

	rows, err := st.Users.ActiveFollowCounts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byID := map[int64]FollowCounts{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Equal(t, int64(2), byID[ids[1]].FollowerCount)
	assert.Equal(t, int64(1), byID[ids[1]].FollowingCount)
	assert.Equal(t, int64(0), byID[ids[2]].FollowerCount)
}
