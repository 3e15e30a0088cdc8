package commitment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/triadbank/ledger-core/pkgs/errs"
)

func TestCreateAndVerify(t *testing.T) {
	c, err := Create("idx-alice", "idx-bob", 2500, "")
	require.NoError(t, err)
	require.NotEmpty(t, c.Salt)
	require.True(t, Verify(c, "idx-alice", "idx-bob", 2500))
	require.False(t, Verify(c, "idx-alice", "idx-bob", 2501))
	require.False(t, Verify(c, "idx-mallory", "idx-bob", 2500))
}

func TestCreateWithFixedSalt(t *testing.T) {
	a, err := Create("idx-alice", "idx-bob", 100, "deadbeef")
	require.NoError(t, err)
	b, err := Create("idx-alice", "idx-bob", 100, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, a.Value, b.Value)

	c, err := Create("idx-alice", "idx-bob", 100, "")
	require.NoError(t, err)
	require.NotEqual(t, a.Value, c.Value)
}

func TestCreateValidation(t *testing.T) {
	_, err := Create("", "idx-bob", 100, "")
	require.Error(t, err)
	_, err = Create("idx-alice", "idx-bob", 0, "")
	require.Error(t, err)
	_, err = Create("idx-alice", "idx-bob", -5, "")
	require.Error(t, err)
}

func TestNullifierDeterministic(t *testing.T) {
	c, err := Create("idx-alice", "idx-bob", 100, "")
	require.NoError(t, err)
	n1 := Nullifier(c.Value, "idx-alice", "alice-secret")
	n2 := Nullifier(c.Value, "idx-alice", "alice-secret")
	require.Equal(t, n1, n2)
	require.NotEqual(t, n1, Nullifier(c.Value, "idx-alice", "other-secret"))
}

func TestSpendTwiceIsDoubleSpend(t *testing.T) {
	set := NewNullifierSet()
	n := Nullifier("0xabc", "idx-alice", "alice-secret")

	require.NoError(t, set.Spend(n))
	require.True(t, set.IsSpent(n))

	err := set.Spend(n)
	var ds *errs.DoubleSpendError
	require.ErrorAs(t, err, &ds)
	require.Equal(t, 1, set.Count())
}

func TestConcurrentSpendAdmitsExactlyOne(t *testing.T) {
	set := NewNullifierSet()
	n := Nullifier("0xabc", "idx-alice", "alice-secret")

	const racers = 32
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- set.Spend(n)
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		}
	}
	require.Equal(t, 1, wins)
}
