package rbc_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/internal/rbc"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/party"
)

// acceptAll is a predicate every honest party uses when the payload itself
// carries no external validity condition, the common case for the S1/S6
// style scenarios spec.md §8 describes for validated RBC.
func acceptAll(context.Context, []byte) bool { return true }

func runRBC(t *testing.T, n, f int, leader party.ID, input []byte) ([][]byte, []error) {
	t.Helper()
	bus := transport.NewBus(n)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		bus.Demux(party.ID(i)).Run(ctx)
	}

	const tag transport.Tag = "test/rbc"
	outs := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			self := party.ID(i)
			var in []byte
			if self == leader {
				in = input
			}
			out, err := rbc.Run(ctx, rbc.Config{
				Self:      self,
				N:         n,
				T:         f,
				Leader:    leader,
				Tag:       tag,
				Net:       bus,
				Inbound:   bus.Demux(self).Subscribe(tag),
				Predicate: acceptAll,
				Input:     in,
			})
			outs[i], errs[i] = out, err
		}()
	}
	wg.Wait()
	return outs, errs
}

func TestRBCAllHonestAgreeOnLeadersValue(t *testing.T) {
	n, f := 4, 1
	leader := party.ID(2)
	msg := []byte("this is the value the leader disperses to everyone")

	outs, errs := runRBC(t, n, f, leader, msg)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "party %d", i)
		assert.Equal(t, msg, outs[i], "party %d", i)
	}
}

func TestRBCLeaderAlreadyHeldFastPath(t *testing.T) {
	n, f := 4, 1
	leader := party.ID(0)
	msg := []byte("short")

	outs, errs := runRBC(t, n, f, leader, msg)
	require.NoError(t, errs[leader])
	assert.Equal(t, msg, outs[leader])
}
