package auditlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

func newTestChain(t *testing.T) (*Chain, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	chain, err := NewChain(ChainOpts{Store: mem, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return chain, mem
}

func appendN(t *testing.T, chain *Chain, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := chain.Append("proposal_vote", map[string]any{
			"proposal_id": fmt.Sprintf("p-%d", i),
			"bank":        "sbi",
		})
		require.NoError(t, err)
	}
}

func TestAppendLinksEntries(t *testing.T) {
	chain, _ := newTestChain(t)

	first, err := chain.Append("freeze_triggered", map[string]any{"user": "idx-alice"})
	require.NoError(t, err)
	require.Equal(t, utils.GenesisHash, first.PreviousHash)
	require.Equal(t, uint64(1), first.Seq)

	second, err := chain.Append("freeze_expired", map[string]any{"user": "idx-alice"})
	require.NoError(t, err)
	require.Equal(t, first.CurrentHash, second.PreviousHash)
	require.Equal(t, second.CurrentHash, chain.LatestHash())
}

func TestVerifyIntactChain(t *testing.T) {
	chain, _ := newTestChain(t)
	appendN(t, chain, 10)

	ok, diagnostic, err := chain.VerifyChain(1, 0)
	require.NoError(t, err)
	require.True(t, ok, diagnostic)

	// Partial ranges also verify, anchored to the preceding entry.
	ok, diagnostic, err = chain.VerifyChain(4, 8)
	require.NoError(t, err)
	require.True(t, ok, diagnostic)

	require.NoError(t, chain.CheckIntegrity(1, 0))
}

func TestMutatedEntryBreaksChain(t *testing.T) {
	chain, mem := newTestChain(t)
	appendN(t, chain, 6)

	// Tamper with entry 3's event data directly in storage.
	raw, err := mem.Range(store.KindAudit, 3, 3)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	var entry Entry
	require.NoError(t, json.Unmarshal(raw[0].Data, &entry))
	entry.EventData["bank"] = "hdfc"
	tampered, err := json.Marshal(&entry)
	require.NoError(t, err)
	raw[0].Data = tampered

	ok, diagnostic, err := chain.VerifyChain(1, 0)
	require.NoError(t, err)
	require.False(t, ok)
	require.Contains(t, diagnostic, "entry 3")

	var integrity *errs.ChainIntegrityError
	require.ErrorAs(t, chain.CheckIntegrity(1, 0), &integrity)
}

func TestResumeFromPersistedHead(t *testing.T) {
	mem := store.NewMemoryStore()
	chain, err := NewChain(ChainOpts{Store: mem})
	require.NoError(t, err)
	_, err = chain.Append("court_order_issued", map[string]any{"order": "CO-1"})
	require.NoError(t, err)
	head := chain.LatestHash()

	reopened, err := NewChain(ChainOpts{Store: mem})
	require.NoError(t, err)
	require.Equal(t, head, reopened.LatestHash())

	entry, err := reopened.Append("court_order_expired", map[string]any{"order": "CO-1"})
	require.NoError(t, err)
	require.Equal(t, head, entry.PreviousHash)

	ok, diagnostic, err := reopened.VerifyChain(1, 0)
	require.NoError(t, err)
	require.True(t, ok, diagnostic)
}

func TestConcurrentAppendsDoNotFork(t *testing.T) {
	chain, _ := newTestChain(t)

	const writers = 16
	var wg sync.WaitGroup
	errc := make(chan error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := chain.Append("proposal_vote", map[string]any{"writer": i})
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}

	entries, err := chain.Entries(1, 0)
	require.NoError(t, err)
	require.Len(t, entries, writers)
	ok, diagnostic, err := chain.VerifyChain(1, 0)
	require.NoError(t, err)
	require.True(t, ok, diagnostic)
}

func TestDeterministicEventDataHashing(t *testing.T) {
	clock := utils.FixedClock{T: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	mem := store.NewMemoryStore()
	chain, err := NewChain(ChainOpts{Store: mem, Clock: clock})
	require.NoError(t, err)

	a, err := chain.Append("evt", map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)

	other, err := NewChain(ChainOpts{Store: store.NewMemoryStore(), Clock: clock})
	require.NoError(t, err)
	b, err := other.Append("evt", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	require.Equal(t, a.CurrentHash, b.CurrentHash)
}
