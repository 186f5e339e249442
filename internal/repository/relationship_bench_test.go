package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

func seedBenchUsers(b *testing.B, st *Store, n int) []model.User {
	b.Helper()
	users := make([]model.User, n)
	for i := range users {
		users[i] = model.User{ID: int64(i + 1), Name: fmt.Sprintf("u%04d", i), Gender: model.GenderMale, Age: 20, Credential: "p"}
	}
	if err := st.Users.CreateInBatches(context.Background(), users); err != nil {
		b.Fatalf("seed users: %v", err)
	}
	return users
}

func BenchmarkFollowWrite_WithCounters(b *testing.B) {
	st := NewStore(testutil.NewDB(b), SequenceOptions{})
	users := seedBenchUsers(b, st, 1000)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rng.Intn(len(users))].ID
		to := users[rng.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = st.Transaction(ctx, func(tx *Store) error {
			exists, err := tx.Follows.Exists(ctx, from, to)
			if err != nil || exists {
				return err
			}
			if err := tx.Follows.Create(ctx, from, to); err != nil {
				return err
			}
			return tx.Users.AdjustFollowCounts(ctx, from, to, 1)
		})
	}
}

func BenchmarkQueryFollowersAndFollowing(b *testing.B) {
	st := NewStore(testutil.NewDB(b), SequenceOptions{})
	ctx := context.Background()

	// 用户 1 有 N 个粉丝，同时关注 N 个用户
	const N = 5000
	users := seedBenchUsers(b, st, N+1)
	edges := make([]model.Follow, 0, 2*N)
	for _, u := range users[1:] {
		edges = append(edges,
			model.Follow{FollowerID: u.ID, FolloweeID: users[0].ID},
			model.Follow{FollowerID: users[0].ID, FolloweeID: u.ID})
	}
	if err := st.Follows.CreateInBatches(ctx, edges); err != nil {
		b.Fatalf("seed edges: %v", err)
	}

	b.ResetTimer()
	b.Run("ListFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = st.Follows.ListFollowers(ctx, users[0].ID, 0, 50)
		}
	})
	b.Run("ListFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = st.Follows.ListFollowings(ctx, users[0].ID, 0, 50)
		}
	})
	b.Run("FollowerIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = st.Follows.FollowerIDs(ctx, users[0].ID)
		}
	})
}
