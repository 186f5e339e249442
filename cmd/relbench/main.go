package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// relbench: N 个用户并发切换关注同一个热门用户 ROUNDS 次，结束后核对计数与关注边是否一致
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	store := repository.NewStore(db, repository.SequenceOptions{UserFloor: cfg.ID.UserFloor, MaxAttempts: cfg.ID.MaxAttempts})
	opts := service.Options{BcryptCost: bcrypt.MinCost}
	userSvc := service.NewUserService(store, nil, opts)
	relSvc := service.NewRelationshipService(store, nil)

	ctx := context.Background()
	N := envInt("N", 1000)
	CONC := envInt("CONC", 8)
	ROUNDS := envInt("ROUNDS", 3)

	const credential = "p"
	celebID := must(userSvc.Register(ctx, service.RegisterRequest{
		Name: "celeb-" + uuid.NewString()[:8], Gender: model.GenderFemale, Birthday: "1990-01-01", Credential: credential,
	}))
	hash := string(must(bcrypt.GenerateFromPassword([]byte(credential), bcrypt.MinCost)))
	users := make([]model.User, N)
	for i := range users {
		users[i] = model.User{
			ID:         celebID + int64(i) + 1,
			Name:       "bench-" + uuid.NewString()[:13],
			Gender:     model.GenderMale,
			Age:        20,
			Credential: hash,
		}
	}
	if err := store.Users.CreateInBatches(ctx, users); err != nil {
		panic(err)
	}

	total := N * ROUNDS
	feed := make(chan int, total)
	for r := 0; r < ROUNDS; r++ {
		for i := 0; i < N; i++ {
			feed <- i
		}
	}
	close(feed)

	latCh := make(chan time.Duration, total)
	errCount := make(chan int, CONC)
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		go func() {
			failed := 0
			for i := range feed {
				st := time.Now()
				if _, err := relSvc.ToggleFollow(ctx, model.Auth{UserID: users[i].ID, Credential: credential}, celebID); err != nil {
					failed++
				}
				latCh <- time.Since(st)
			}
			errCount <- failed
		}()
	}
	failed := 0
	for w := 0; w < CONC; w++ {
		failed += <-errCount
	}
	elapsed := time.Since(t0)
	close(latCh)
	lats := make([]time.Duration, 0, total)
	for d := range latCh {
		lats = append(lats, d)
	}

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	celeb := must(store.Users.GetByID(ctx, celebID))
	edges := must(store.Follows.FollowerIDs(ctx, celebID))
	wantEdges := 0
	if ROUNDS%2 == 1 {
		wantEdges = N
	}

	fmt.Printf("N=%d, CONC=%d, ROUNDS=%d, failed=%d\n", N, CONC, ROUNDS, failed)
	fmt.Printf("Toggle latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		elapsed, elapsed/time.Duration(total), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
	fmt.Printf("Celebrity follower_count=%d, edges=%d, expected=%d\n", celeb.FollowerCount, len(edges), wantEdges)
	if celeb.FollowerCount != int64(len(edges)) || len(edges) != wantEdges {
		fmt.Println("INVARIANT VIOLATED")
		os.Exit(1)
	}
}
