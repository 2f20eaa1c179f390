package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/krisalay/tunecache"
	"github.com/krisalay/tunecache/engine"
	"github.com/krisalay/tunecache/eviction"
	"github.com/krisalay/tunecache/resource"
)

// ================= BENCHMARK =================

func main() {
	shards := flag.Int("shards", 8, "Number of shards")
	capacity := flag.Int("capacity", 200000, "Store capacity (0 = unbounded)")
	users := flag.Int("users", 50000, "Distinct users")
	goroutines := flag.Int("goroutines", 200, "Concurrent readers")
	opsPerG := flag.Int("ops", 5000, "Reads per goroutine")
	flag.Parse()

	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", *shards)
	fmt.Println("Capacity     :", *capacity)
	fmt.Println("Users        :", *users)
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("---------------------------------")

	store, err := cache.NewShardedCache(cache.Options{
		Shards:   *shards,
		Capacity: *capacity,
		Eviction: eviction.LRU,
	})
	if err != nil {
		fmt.Println("store:", err)
		return
	}
	defer store.Close()

	eng := engine.NewCacheEngine(store, engine.Options{})
	tracks := resource.New[int](eng, resource.Tracks, resource.TracksTTL)

	// Each fetch sleeps like a network round-trip.
	var fetches atomic.Int64
	fetch := func(ctx context.Context) (int, error) {
		fetches.Add(1)
		time.Sleep(time.Millisecond)
		return 1, nil
	}

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(*goroutines)
	for i := 0; i < *goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				user := fmt.Sprintf("user-%d", (id*31+j)%*users)
				_, _ = tracks.Get(ctx, user, fetch)
				if j%1000 == 0 {
					tracks.Invalidate(user)
				}
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Remote Fetches   : %d\n", fetches.Load())
	fmt.Printf("Hit Ratio        : %.2f%%\n", 100*(1-float64(fetches.Load())/float64(totalOps)))
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}
