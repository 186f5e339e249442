package main

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/cache"
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

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type scenarioResult struct {
	durations   []time.Duration
	hits        int64
	misses      int64
	cacheKeys   int
	memoryBytes int64
}

// cachebench: 比较个人主页读取在无缓存与 redis 读穿缓存下的延迟
// 未启用 redis 时使用进程内 miniredis
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	store := repository.NewStore(db, repository.SequenceOptions{UserFloor: cfg.ID.UserFloor, MaxAttempts: cfg.ID.MaxAttempts})

	var client *redis.Client
	if cfg.Redis.Enabled {
		client = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	} else {
		mr := must(miniredis.Run())
		defer mr.Close()
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	defer client.Close()
	mustDo(client.Ping(ctx).Err())

	userCount := envInt("USERS", 20000)
	hotCount := envInt("HOT", 3)
	requests := envInt("REQUESTS", 9000)

	fmt.Println("Setting up test data...")
	hot := seed(ctx, store, userCount, hotCount)

	opts := service.Options{BcryptCost: bcrypt.MinCost}
	fc := cache.NewFollowCache(client, cfg.Redis.TTL)
	plain := service.NewUserService(store, nil, opts)
	cached := service.NewUserService(store, fc, opts)

	rng := rand.New(rand.NewSource(42))
	reqs := make([]int64, requests)
	for i := range reqs {
		reqs[i] = hot[rng.Intn(len(hot))]
	}

	noCache := runScenario(ctx, client, nil, reqs, false, plain.GetProfile)
	withCache := runScenario(ctx, client, fc, reqs, true, cached.GetProfile)

	fmt.Printf("\nProfile read latency (%d req across %d hot users, %d users)\n", requests, hotCount, userCount)
	for _, row := range []struct {
		name string
		r    scenarioResult
	}{{"No cache", noCache}, {"Read-through", withCache}} {
		fmt.Printf("%-14s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
			row.name, avg(row.r.durations), pct(row.r.durations, 0.95), pct(row.r.durations, 0.99),
			row.r.hits, row.r.misses, row.r.cacheKeys, formatBytes(row.r.memoryBytes))
	}
}

// seed 写入 userCount 个粉丝与 hotCount 个热门用户，每个粉丝关注一半热门用户
func seed(ctx context.Context, store *repository.Store, userCount, hotCount int) []int64 {
	hash := string(must(bcrypt.GenerateFromPassword([]byte("p"), bcrypt.MinCost)))
	var base int64
	mustDo(store.DB().WithContext(ctx).Model(&model.User{}).Select("COALESCE(MAX(id), 0)").Scan(&base).Error)
	prefix := uuid.NewString()[:8]

	users := make([]model.User, 0, userCount+hotCount)
	hot := make([]int64, hotCount)
	for i := 0; i < hotCount+userCount; i++ {
		id := base + int64(i) + 1
		if i < hotCount {
			hot[i] = id
		}
		users = append(users, model.User{
			ID: id, Name: fmt.Sprintf("%s-%d", prefix, i), Gender: model.GenderMale, Age: 30, Credential: hash,
		})
	}
	mustDo(store.Users.CreateInBatches(ctx, users))

	edges := make([]model.Follow, 0, userCount*hotCount/2+1)
	for _, u := range users[hotCount:] {
		for j, h := range hot {
			if (int(u.ID)+j)%2 == 0 {
				edges = append(edges, model.Follow{FollowerID: u.ID, FolloweeID: h})
			}
		}
	}
	mustDo(store.Follows.CreateInBatches(ctx, edges))
	return hot
}

func runScenario(ctx context.Context, client *redis.Client, fc *cache.FollowCache, reqs []int64, warm bool,
	call func(context.Context, int64) (*model.UserProfile, error)) scenarioResult {
	client.FlushAll(ctx)
	fc.ResetCounters()

	if warm {
		fmt.Print("  Warming cache...")
		for _, id := range reqs {
			_ = must(call(ctx, id))
		}
		fmt.Println(" done")
		fc.ResetCounters()
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, id := range reqs {
		start := time.Now()
		_ = must(call(ctx, id))
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	hits, misses := fc.Counters()
	keys, _ := client.Keys(ctx, "*").Result()
	var memBytes int64
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		memBytes = parseRedisMemory(info)
	}
	return scenarioResult{durations: out, hits: hits, misses: misses, cacheKeys: len(keys), memoryBytes: memBytes}
}

// parseRedisMemory 从 INFO memory 中取 used_memory；miniredis 不支持时为 0
func parseRedisMemory(info string) int64 {
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	return xs[k]
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
