// Package rbc implements the validated reliable broadcast protocol from
// spec.md §4.4: leader-initiated, predicate-gated, erasure-coded
// dispersal with PROPOSE/ECHO/READY phases. It is a direct translation of
// the qrbc coroutine in original_source/adkg/broadcast/qrbc.py into a
// goroutine-owned state machine, per DESIGN_NOTES §9 ("model each
// sub-protocol as a state machine driven by a typed message enum and
// owned by a task").
package rbc

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/adkg/pkg/codec"
	"github.com/luxfi/adkg/pkg/party"
	"github.com/zeebo/blake3"

	"github.com/luxfi/adkg/internal/transport"
)

// ErrPredicateFail is the PredicateFail error kind (spec.md §7): the RBC
// instance discards the PROPOSE and stays open rather than failing.
var ErrPredicateFail = errors.New("rbc: predicate rejected proposal")

// Predicate validates a candidate message. It may itself suspend on
// external state, e.g. ACSS completion (spec.md §4.4 last line).
type Predicate func(ctx context.Context, m []byte) bool

// message kinds on the wire.
const (
	kindPropose byte = 1
	kindEcho    byte = 2
	kindReady   byte = 3
)

type wireMsg struct {
	Kind   byte
	M      []byte // PROPOSE
	Digest []byte // ECHO / READY
	Stripe []byte // ECHO / READY
}

// Config parameterizes one RBC instance.
type Config struct {
	Self      party.ID
	N, T      int
	Leader    party.ID
	Tag       transport.Tag
	Net       transport.Network
	Inbound   <-chan transport.Envelope
	Predicate Predicate
	// Input is the leader's message to broadcast; nil for non-leaders.
	Input []byte
}

func digestOf(m []byte) [32]byte {
	return blake3.Sum256(m)
}

// Run executes the instance to completion, returning the single message
// m* every honest party that returns agrees on (totality), satisfying
// Predicate (validity).
func Run(ctx context.Context, cfg Config) ([]byte, error) {
	n, f := cfg.N, cfg.T
	if n < 3*f+1 {
		return nil, fmt.Errorf("rbc: need n >= 3f+1, got n=%d f=%d", n, f)
	}
	k := f + 1
	echoThreshold := 2*f + 1
	readyThreshold := f + 1
	outputThreshold := 2*f + 1

	send := func(to party.ID, m wireMsg) error {
		payload, err := transport.Marshal(m)
		if err != nil {
			return err
		}
		return cfg.Net.Send(cfg.Self, to, cfg.Tag, payload)
	}
	broadcast := func(m wireMsg) error {
		for i := 0; i < n; i++ {
			if err := send(party.ID(i), m); err != nil {
				return err
			}
		}
		return nil
	}

	if cfg.Self == cfg.Leader {
		if err := broadcast(wireMsg{Kind: kindPropose, M: cfg.Input}); err != nil {
			return nil, err
		}
	}

	var (
		fromLeader   []byte
		fromLeaderOK bool
		readyDigest  [32]byte
		readyStripe  []byte
		haveReady    bool
		readySent    bool

		echoSenders  = make(map[party.ID]bool)
		echoCounts   = make(map[string]int) // digest|stripe bytes -> count
		readySenders = make(map[party.ID]bool)
		readyCounts  = make(map[string]int) // digest bytes -> count
		stripeTables = make(map[string][][]byte)
	)

	digestKey := func(d []byte) string { return string(d) }

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env := <-cfg.Inbound:
			var msg wireMsg
			if err := transport.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			switch msg.Kind {
			case kindPropose:
				if fromLeaderOK || env.From != cfg.Leader {
					continue
				}
				if !cfg.Predicate(ctx, msg.M) {
					// PredicateFail: discard, stay open (spec.md §7).
					continue
				}
				fromLeader, fromLeaderOK = msg.M, true
				digest := digestOf(msg.M)
				stripes, err := codec.Encode(k, n, msg.M)
				if err != nil {
					return nil, err
				}
				for i := 0; i < n; i++ {
					if err := send(party.ID(i), wireMsg{Kind: kindEcho, Digest: digest[:], Stripe: stripes[i]}); err != nil {
						return nil, err
					}
				}

			case kindEcho:
				if echoSenders[env.From] {
					continue
				}
				echoSenders[env.From] = true
				skey := digestKey(msg.Digest) + "|" + digestKey(msg.Stripe)
				echoCounts[skey]++
				if echoCounts[skey] >= k && !haveReady {
					var d [32]byte
					copy(d[:], msg.Digest)
					readyDigest, readyStripe, haveReady = d, msg.Stripe, true
				}
				if len(echoSenders) >= echoThreshold && !readySent && haveReady {
					readySent = true
					if err := broadcast(wireMsg{Kind: kindReady, Digest: readyDigest[:], Stripe: readyStripe}); err != nil {
						return nil, err
					}
				}

			case kindReady:
				if readySenders[env.From] {
					continue
				}
				readySenders[env.From] = true
				dkey := digestKey(msg.Digest)
				readyCounts[dkey]++
				tbl, ok := stripeTables[dkey]
				if !ok {
					tbl = make([][]byte, n)
					stripeTables[dkey] = tbl
				}
				tbl[env.From] = msg.Stripe

				if readyCounts[dkey] >= readyThreshold && !readySent {
					readySent = true
					var d [32]byte
					copy(d[:], msg.Digest)
					if !haveReady {
						readyDigest, readyStripe, haveReady = d, msg.Stripe, true
					}
					if err := broadcast(wireMsg{Kind: kindReady, Digest: readyDigest[:], Stripe: readyStripe}); err != nil {
						return nil, err
					}
				}

				if readyCounts[dkey] >= outputThreshold {
					target := mustDigest(msg.Digest)
					if fromLeaderOK && digestOf(fromLeader) == target {
						return fromLeader, nil
					}
					decoded, err := codec.Decode(k, n, tbl)
					if err != nil {
						// InsufficientShares: keep waiting (spec.md §7).
						continue
					}
					if digestOf(decoded) == target {
						return decoded, nil
					}
				}
			}
		}
	}
}

func mustDigest(b []byte) [32]byte {
	var d [32]byte
	copy(d[:], b)
	return d
}
