// Package aba implements the asynchronous binary agreement primitive that
// spec.md §1 treats as an external collaborator ("assumed available with
// its standard ABA contract"). ACS (internal/acs) only depends on the
// Run contract below: an input bit goes in, a decided bit comes out, and
// every honest party decides the same bit. This file supplies a runnable
// reference implementation (a BVAL/AUX round structure in the style of
// Mostefaoui-Moumen-Raynal binary agreement) so the module is a complete,
// exercisable ADKG rather than one that blocks on an unimplemented
// dependency; see DESIGN.md for why its coin is a local hash rather than
// a true unpredictable common coin.
package aba

import (
	"context"

	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/party"
	"github.com/zeebo/blake3"
)

const (
	kindBVal byte = 1
	kindAux  byte = 2
)

type wireMsg struct {
	Kind  byte
	Round uint32
	Value byte
}

// CoinKey is the per-instance seed used to derive each round's coin. ACS
// supplies it lazily, once the matching RBC has delivered the dealer
// subset this ABA instance is voting on (spec.md §4.6).
type CoinKey []byte

// Config parameterizes one ABA instance.
type Config struct {
	Self    party.ID
	N, T    int
	Tag     transport.Tag
	Net     transport.Network
	Inbound <-chan transport.Envelope
	// Input delivers this party's initial estimate once it is known.
	Input <-chan byte
	// Coin delivers the per-instance coin key once it is known.
	Coin <-chan CoinKey
}

// Run executes the instance to completion and returns the decided bit.
func Run(ctx context.Context, cfg Config) (byte, error) {
	n, f := cfg.N, cfg.T

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

	var est byte
	select {
	case est = <-cfg.Input:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	var coinKey CoinKey
	select {
	case coinKey = <-cfg.Coin:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	round := uint32(0)
	// bvalSent/bvalCounts/binValues/auxSenders/auxValues are reset each round.
	decided := false
	var decidedValue byte

	for {
		bvalSent := [2]bool{}
		bvalCounts := make(map[byte]map[party.ID]bool)
		bvalCounts[0] = make(map[party.ID]bool)
		bvalCounts[1] = make(map[party.ID]bool)
		binValues := make(map[byte]bool)
		auxSenders := make(map[party.ID]bool)
		auxValues := make(map[byte]bool)

		if err := broadcast(wireMsg{Kind: kindBVal, Round: round, Value: est}); err != nil {
			return 0, err
		}
		bvalSent[est] = true

		auxBroadcast := false

		for !auxBroadcast || len(binValues) == 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case env := <-cfg.Inbound:
				var msg wireMsg
				if err := transport.Unmarshal(env.Payload, &msg); err != nil {
					continue
				}
				if msg.Round != round || msg.Kind != kindBVal {
					continue
				}
				bvalCounts[msg.Value][env.From] = true
				if len(bvalCounts[msg.Value]) >= f+1 && !bvalSent[msg.Value] {
					bvalSent[msg.Value] = true
					if err := broadcast(wireMsg{Kind: kindBVal, Round: round, Value: msg.Value}); err != nil {
						return 0, err
					}
				}
				if len(bvalCounts[msg.Value]) >= n-f {
					binValues[msg.Value] = true
				}
			}
			if len(binValues) > 0 && !auxBroadcast {
				auxBroadcast = true
				var w byte
				for v := range binValues {
					w = v
					break
				}
				if err := broadcast(wireMsg{Kind: kindAux, Round: round, Value: w}); err != nil {
					return 0, err
				}
			}
		}

		// Collect n-f AUX messages whose values lie in binValues.
		for len(auxSenders) < n-f {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case env := <-cfg.Inbound:
				var msg wireMsg
				if err := transport.Unmarshal(env.Payload, &msg); err != nil {
					continue
				}
				if msg.Kind == kindBVal && msg.Round == round {
					bvalCounts[msg.Value][env.From] = true
					if len(bvalCounts[msg.Value]) >= f+1 && !bvalSent[msg.Value] {
						bvalSent[msg.Value] = true
						if err := broadcast(wireMsg{Kind: kindBVal, Round: round, Value: msg.Value}); err != nil {
							return 0, err
						}
					}
					if len(bvalCounts[msg.Value]) >= n-f {
						binValues[msg.Value] = true
					}
					continue
				}
				if msg.Kind != kindAux || msg.Round != round {
					continue
				}
				if !binValues[msg.Value] {
					continue
				}
				if auxSenders[env.From] {
					continue
				}
				auxSenders[env.From] = true
				auxValues[msg.Value] = true
			}
		}

		coin := localCoin(coinKey, round)

		switch {
		case len(auxValues) == 1 && auxValues[0]:
			if coin == 0 {
				decided, decidedValue = true, 0
			}
			est = 0
		case len(auxValues) == 1 && auxValues[1]:
			if coin == 1 {
				decided, decidedValue = true, 1
			}
			est = 1
		default:
			est = coin
		}

		if decided {
			// The instance returns in the round it decides; it runs no
			// further round and does not gossip the decision to peers.
			return decidedValue, nil
		}
		round++
	}
}

// localCoin derives a per-round bit from the instance's coin key. This is
// a simplification of the common-coin contract the ABA is specified
// against (see DESIGN.md): it is predictable to anyone who knows coinKey,
// rather than unpredictable until threshold-many parties contribute a
// share, but it satisfies the functional Run() contract ACS depends on.
func localCoin(key CoinKey, round uint32) byte {
	h := blake3.New()
	_, _ = h.Write(key)
	var rb [4]byte
	rb[0], rb[1], rb[2], rb[3] = byte(round), byte(round>>8), byte(round>>16), byte(round>>24)
	_, _ = h.Write(rb[:])
	digest := h.Sum(nil)
	return digest[0] & 1
}
