// Package driver wires ACSS, ACS and key derivation together into one
// runnable ADKG instance per party, and runs every party of a local
// roster concurrently over an in-memory transport bus. It is grounded on
// run_adkg / _run in original_source/adkg/adkg.py and
// original_source/apps/tutorial/adkg-tutorial.py, adapted from that
// single asyncio loop per process into one goroutine per party sharing a
// single Go process, the natural translation for a tutorial/test driver
// per DESIGN_NOTES §9.
package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/adkg/internal/acs"
	"github.com/luxfi/adkg/internal/acss"
	"github.com/luxfi/adkg/internal/event"
	"github.com/luxfi/adkg/internal/keyderiv"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/math/sample"
	"github.com/luxfi/adkg/pkg/party"
)

// Result is one party's outcome from a full ADKG run.
type Result struct {
	ID     party.ID
	Output keyderiv.Output
	Err    error
}

// Run bootstraps n parties tolerating t Byzantine faults, runs the full
// ADKG protocol for each over a shared in-memory bus, and returns every
// party's result. Every honest party's Output.PublicKey is equal; their
// Output.SecretShare values are points on the same degree-2t polynomial.
func Run(ctx context.Context, n, t int) []Result {
	sc := computeSC(t)
	publicKeys, privateKeys := bootstrapKeys(n)
	matrix := keyderiv.BuildCombineMatrix(n, t, sc)
	bus := transport.NewBus(n)
	for i := 0; i < n; i++ {
		bus.Demux(party.ID(i)).Run(ctx)
	}

	results := make([]Result, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			self := party.ID(i)
			out, err := runParty(ctx, self, n, t, sc, publicKeys, privateKeys[self], matrix, bus)
			results[i] = Result{ID: self, Output: out, Err: err}
		}()
	}
	wg.Wait()
	return results
}

func acssTag(dealer party.ID) transport.Tag {
	return transport.Tag(fmt.Sprintf("ACSS/RBC/%d", dealer))
}

func acssCtrlTag(dealer party.ID) transport.Tag {
	return transport.Tag(fmt.Sprintf("ACSS/CTRL/%d", dealer))
}

func acsRBCTag(proposer party.ID) transport.Tag {
	return transport.Tag(fmt.Sprintf("ACS/RBC/%d", proposer))
}

func acsABATag(proposer party.ID) transport.Tag {
	return transport.Tag(fmt.Sprintf("ACS/ABA/%d", proposer))
}

const (
	prekeyTag transport.Tag = "KEYDERIV/PREKEY"
	keyTag    transport.Tag = "KEYDERIV/KEY"
)

// runParty implements one party's run_adkg: deal its own ACSS, collect
// dealt outputs from the rest, join the common-subset protocol once n-t
// are in hand, then derive the group key from the resulting master key
// set.
func runParty(
	ctx context.Context,
	self party.ID,
	n, t, sc int,
	publicKeys map[party.ID]curve.Point,
	privateKey curve.Scalar,
	matrix [][][]curve.Scalar,
	bus *transport.Bus,
) (keyderiv.Output, error) {
	demux := bus.Demux(self)

	values := make([]curve.Scalar, sc)
	for k := range values {
		values[k] = sample.Scalar(nil)
	}

	var acssMu sync.Mutex
	acssOutputs := make(map[party.ID]acss.Output)
	signal := event.NewSignal()

	for j := 0; j < n; j++ {
		j := j
		go func() {
			var dealValues []curve.Scalar
			if party.ID(j) == self {
				dealValues = values
			}
			out, err := acss.Run(ctx, acss.Config{
				N: n, T: t, SC: sc,
				Self: self, Dealer: party.ID(j),
				PrivateKey: privateKey,
				PublicKeys: publicKeys,
				Net:        bus,

				RBCTag:     acssTag(party.ID(j)),
				RBCInbound: demux.Subscribe(acssTag(party.ID(j))),

				ControlTag:     acssCtrlTag(party.ID(j)),
				ControlInbound: demux.Subscribe(acssCtrlTag(party.ID(j))),

				DealValues: dealValues,
			})
			if err != nil {
				return
			}
			acssMu.Lock()
			acssOutputs[party.ID(j)] = out
			acssMu.Unlock()
			signal.Set()
		}()
	}

	if err := waitForCount(ctx, &acssMu, acssOutputs, n-t, signal); err != nil {
		return keyderiv.Output{}, err
	}

	acssMu.Lock()
	proposal := make([]party.ID, 0, len(acssOutputs))
	for id := range acssOutputs {
		proposal = append(proposal, id)
	}
	acssMu.Unlock()

	acsResult, err := acs.Run(ctx, acs.Config{
		Self: self, N: n, T: t, Net: bus,
		RBCTag: acsRBCTag, ABATag: acsABATag,
		RBCInbound: func(j party.ID) <-chan transport.Envelope { return demux.Subscribe(acsRBCTag(j)) },
		ABAInbound: func(j party.ID) <-chan transport.Envelope { return demux.Subscribe(acsABATag(j)) },
		Proposal:   proposal,
		ACSSOutputs: func(k party.ID) bool {
			acssMu.Lock()
			defer acssMu.Unlock()
			_, ok := acssOutputs[k]
			return ok
		},
		Signal: signal,
	})
	if err != nil {
		return keyderiv.Output{}, fmt.Errorf("driver: acs: %w", err)
	}

	for _, k := range acsResult.MKS {
		if err := waitForMember(ctx, &acssMu, acssOutputs, k, signal); err != nil {
			return keyderiv.Output{}, err
		}
	}

	acssMu.Lock()
	outputsCopy := make(map[party.ID]acss.Output, len(acssOutputs))
	for k, v := range acssOutputs {
		outputsCopy[k] = v
	}
	acssMu.Unlock()

	out, err := keyderiv.Run(ctx, keyderiv.Config{
		N: n, T: t, SC: sc, Self: self,
		MKS:     acsResult.MKS,
		Outputs: outputsCopy,
		Matrix:  matrix,
		Net:     bus,

		PrekeyTag:     prekeyTag,
		PrekeyInbound: demux.Subscribe(prekeyTag),

		KeyTag:     keyTag,
		KeyInbound: demux.Subscribe(keyTag),
	})
	if err != nil {
		return keyderiv.Output{}, fmt.Errorf("driver: keyderiv: %w", err)
	}
	return out, nil
}

func waitForCount(ctx context.Context, mu *sync.Mutex, outputs map[party.ID]acss.Output, target int, signal *event.Signal) error {
	for {
		mu.Lock()
		have := len(outputs)
		mu.Unlock()
		if have >= target {
			return nil
		}
		signal.Clear()
		if err := signal.Wait(ctx); err != nil {
			return err
		}
	}
}

func waitForMember(ctx context.Context, mu *sync.Mutex, outputs map[party.ID]acss.Output, k party.ID, signal *event.Signal) error {
	for {
		mu.Lock()
		_, ok := outputs[k]
		mu.Unlock()
		if ok {
			return nil
		}
		signal.Clear()
		if err := signal.Wait(ctx); err != nil {
			return err
		}
	}
}
