package acss_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adkg/internal/acss"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/polynomial"
	"github.com/luxfi/adkg/pkg/math/sample"
	"github.com/luxfi/adkg/pkg/party"
)

func bootstrapKeys(n int) (map[party.ID]curve.Point, map[party.ID]curve.Scalar) {
	pub := make(map[party.ID]curve.Point, n)
	priv := make(map[party.ID]curve.Scalar, n)
	for i := 0; i < n; i++ {
		sk := sample.Scalar(nil)
		priv[party.ID(i)] = sk
		pub[party.ID(i)] = sk.ActOnBase()
	}
	return pub, priv
}

func TestACSSHonestDealerAllHonestRecipients(t *testing.T) {
	n, f, sc := 4, 1, 2
	dealer := party.ID(1)
	pub, priv := bootstrapKeys(n)

	dealValues := make([]curve.Scalar, sc)
	for i := range dealValues {
		dealValues[i] = sample.Scalar(nil)
	}

	bus := transport.NewBus(n)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		bus.Demux(party.ID(i)).Run(ctx)
	}

	const rbcTag transport.Tag = "test/acss/rbc"
	const ctrlTag transport.Tag = "test/acss/ctrl"

	outs := make([]acss.Output, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			self := party.ID(i)
			var values []curve.Scalar
			if self == dealer {
				values = dealValues
			}
			out, err := acss.Run(ctx, acss.Config{
				N: n, T: f, SC: sc,
				Self: self, Dealer: dealer,
				PrivateKey: priv[self],
				PublicKeys: pub,
				Net:        bus,

				RBCTag:     rbcTag,
				RBCInbound: bus.Demux(self).Subscribe(rbcTag),

				ControlTag:     ctrlTag,
				ControlInbound: bus.Demux(self).Subscribe(ctrlTag),

				DealValues: values,
			})
			outs[i], errs[i] = out, err
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "party %d", i)
		assert.Equal(t, dealer, outs[i].Dealer)
		require.Len(t, outs[i].Shares.Msg, sc)
		require.Len(t, outs[i].Shares.Rand, sc-1)

		id := party.ID(i)
		x := id.Scalar(curve.Secp256k1)
		assert.True(t, polynomial.VerifyFeldman(outs[i].Commits[0], x, outs[i].Shares.Msg[0]),
			fmt.Sprintf("party %d: feldman check failed for slot 0", i))
		for k := 1; k < sc; k++ {
			assert.True(t, polynomial.VerifyPedersen(outs[i].Commits[k], x, outs[i].Shares.Msg[k], outs[i].Shares.Rand[k-1]),
				fmt.Sprintf("party %d: pedersen check failed for slot %d", i, k))
		}
	}
}
