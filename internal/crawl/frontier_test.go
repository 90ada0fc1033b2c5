package crawl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrontierSeedDeduplicates(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	accepted := f.Seed([]string{"https://a.test/", "", "https://a.test/", "https://b.test/"})
	require.Equal(t, 2, accepted)

	lease, ok := f.Claim(context.Background())
	require.True(t, ok)
	require.Equal(t, "https://a.test/", lease.URL)
	require.Equal(t, 0, lease.Depth)
}

func TestFrontierClaimIsExclusive(t *testing.T) {
	t.Parallel()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://seed%d.test/", i)
	}
	f := NewFrontier(100, 0)
	f.Seed(urls)

	var mu sync.Mutex
	counts := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				lease, ok := f.Claim(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				counts[lease.URL]++
				mu.Unlock()
				f.Release()
			}
		}()
	}
	wg.Wait()

	require.Len(t, counts, len(urls))
	for url, n := range counts {
		require.Equalf(t, 1, n, "url %s claimed %d times", url, n)
	}
}

func TestFrontierRecordResultHonorsCap(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				doc := Document{URL: fmt.Sprintf("https://site.test/%d/%d", n, j)}
				if f.RecordResult(doc) {
					accepted.Add(1)
				}
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(10), accepted.Load())
	require.Len(t, f.Results(), 10)
}

func TestFrontierClaimRefusesWhenSaturated(t *testing.T) {
	t.Parallel()

	f := NewFrontier(1, 0)
	f.Seed([]string{"https://a.test/", "https://b.test/"})

	lease, ok := f.Claim(context.Background())
	require.True(t, ok)
	require.True(t, f.RecordResult(Document{URL: lease.URL}))
	f.Release()

	// b.test is still pending but the cap is reached.
	_, ok = f.Claim(context.Background())
	require.False(t, ok)
	require.Equal(t, 1, f.Stats().Pending)
}

func TestFrontierZeroCapMeansNoWork(t *testing.T) {
	t.Parallel()

	f := NewFrontier(0, 0)
	f.Seed([]string{"https://a.test/"})

	_, ok := f.Claim(context.Background())
	require.False(t, ok)
	require.Empty(t, f.Results())
}

func TestFrontierOfferLinksSkipsVisited(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	f.Seed([]string{"https://a.test/"})

	seed, ok := f.Claim(context.Background())
	require.True(t, ok)

	accepted := f.OfferLinks([]string{"https://a.test/", "", "https://b.test/"}, seed.Depth+1)
	require.Equal(t, 1, accepted)
	f.Release()

	next, ok := f.Claim(context.Background())
	require.True(t, ok)
	require.Equal(t, "https://b.test/", next.URL)
	require.Equal(t, 1, next.Depth)
}

func TestFrontierOfferLinksEnforcesDepthLimit(t *testing.T) {
	t.Parallel()

	limited := NewFrontier(10, 2)
	require.Zero(t, limited.OfferLinks([]string{"https://deep.test/"}, 3))
	require.Equal(t, 1, limited.OfferLinks([]string{"https://ok.test/"}, 2))

	unlimited := NewFrontier(10, 0)
	require.Equal(t, 1, unlimited.OfferLinks([]string{"https://deep.test/"}, 99))
}

func TestFrontierOfferLinksStopsAtCapacity(t *testing.T) {
	t.Parallel()

	f := NewFrontier(2, 0)
	require.True(t, f.RecordResult(Document{URL: "https://a.test/"}))
	require.True(t, f.RecordResult(Document{URL: "https://b.test/"}))
	require.Zero(t, f.OfferLinks([]string{"https://c.test/"}, 1))
}

func TestFrontierQuiescence(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	require.True(t, f.IsQuiescent())

	f.Seed([]string{"https://a.test/"})
	require.False(t, f.IsQuiescent())

	_, ok := f.Claim(context.Background())
	require.True(t, ok)
	// Queue is empty but the claim is still open.
	require.False(t, f.IsQuiescent())

	f.Release()
	require.True(t, f.IsQuiescent())
}

func TestFrontierClaimWaitsForInflightDiscovery(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	f.Seed([]string{"https://seed.test/"})

	seed, ok := f.Claim(context.Background())
	require.True(t, ok)

	type claimResult struct {
		lease Lease
		ok    bool
	}
	got := make(chan claimResult, 1)
	go func() {
		lease, ok := f.Claim(context.Background())
		got <- claimResult{lease: lease, ok: ok}
	}()

	// The second claimer must not give up while the seed claim is open:
	// the in-flight worker may still discover links.
	select {
	case res := <-got:
		t.Fatalf("claim returned early (ok=%v)", res.ok)
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, f.RecordResult(Document{URL: seed.URL}))
	f.OfferLinks([]string{"https://next.test/"}, seed.Depth+1)
	f.Release()

	select {
	case res := <-got:
		require.True(t, res.ok)
		require.Equal(t, "https://next.test/", res.lease.URL)
		require.Equal(t, 1, res.lease.Depth)
	case <-time.After(2 * time.Second):
		t.Fatal("claim did not wake after links were offered")
	}
	f.Release()
}

func TestFrontierCloseWakesBlockedClaim(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	f.Seed([]string{"https://seed.test/"})

	_, ok := f.Claim(context.Background())
	require.True(t, ok)

	done := make(chan bool, 1)
	go func() {
		_, ok := f.Claim(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	f.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("claim did not observe close")
	}
}

func TestFrontierClaimHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	f := NewFrontier(10, 0)
	f.Seed([]string{"https://a.test/"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := f.Claim(ctx)
	require.False(t, ok)
}
