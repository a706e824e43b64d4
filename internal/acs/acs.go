// Package acs implements asynchronous common subset (spec.md §4.6): n
// parallel validated RBC instances, one per party's claimed-complete ACSS
// set, coupled to n parallel binary agreements that settle which of those
// claims the group accepts. It is a direct translation of the
// commonsubset/agreement pair in original_source/adkg/adkg.py.
package acs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/adkg/internal/aba"
	"github.com/luxfi/adkg/internal/event"
	"github.com/luxfi/adkg/internal/rbc"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/codec"
	"github.com/luxfi/adkg/pkg/party"
	"github.com/zeebo/blake3"
)

// Config parameterizes one run of the common-subset protocol.
type Config struct {
	Self party.ID
	N, T int
	Net  transport.Network

	// RBCTag(j)/ABATag(j) mint the per-instance tag namespace; the caller
	// (the driver) owns tag allocation so it can wire matching inbound
	// channels before the run starts.
	RBCTag func(j party.ID) transport.Tag
	ABATag func(j party.ID) transport.Tag

	RBCInbound func(j party.ID) <-chan transport.Envelope
	ABAInbound func(j party.ID) <-chan transport.Envelope

	// Proposal is this party's own claimed-complete ACSS set, i.e. the
	// dealers it already holds ACSS output for when ACS starts.
	Proposal []party.ID

	// ACSSOutputs reports whether ACSS output for dealer k has arrived.
	// ACSSOutputs must be safe for concurrent use; the driver backs it by
	// the same map acss_step populates.
	ACSSOutputs func(k party.ID) bool

	// Signal is raised every time a new ACSS output arrives, and is the
	// wakeup mechanism the RBC predicate and the commonsubset bookkeeping
	// use instead of polling (DESIGN_NOTES §9, acss_signal in
	// original_source/adkg/adkg.py).
	Signal *event.Signal
}

// Result is the output of one ACS run: the master key set (union of the
// accepted RBC proposals, truncated deterministically to n-t members) and,
// for diagnostics, the raw per-proposer accepted sets.
type Result struct {
	MKS       []party.ID
	Proposals [][]party.ID // index j; nil if party j's proposal was rejected
}

// Run executes common subset to completion and returns the master key set.
//
// RBC and ABA instances for dealers that end up excluded are left running
// in the background rather than force-joined: original_source never awaits
// the underlying optqrbc/tylerba tasks either, only the bookkeeping
// wrapper around them, so a validated-but-unwanted RBC instance is simply
// abandoned (it is harmless: it can never disagree with what already
// terminated). Only the n per-dealer "did ABA decide, and if so did its
// RBC actually deliver" wrapper tasks are joined here.
func Run(ctx context.Context, cfg Config) (Result, error) {
	n := cfg.N
	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	bgErr := make(chan error, 2*n)

	rbcOut := make([]chan []byte, n)
	for j := 0; j < n; j++ {
		rbcOut[j] = make(chan []byte, 1)
	}

	predicate := func(j party.ID) rbc.Predicate {
		return func(ctx context.Context, m []byte) bool {
			members := bitmapMembers(cfg.N, m)
			if len(members) <= cfg.T {
				return false
			}
			for {
				cfg.Signal.Clear()
				if allPresent(members, cfg.ACSSOutputs) {
					return true
				}
				if cfg.Signal.Wait(ctx) != nil {
					return false
				}
			}
		}
	}

	for j := 0; j < n; j++ {
		j := j
		var input []byte
		if party.ID(j) == cfg.Self {
			bm := codec.BitmapFromMembers(cfg.N, membersOf(cfg.Proposal))
			input = bm.Bytes()
		}
		go func() {
			out, err := rbc.Run(bgCtx, rbc.Config{
				Self:      cfg.Self,
				N:         cfg.N,
				T:         cfg.T,
				Leader:    party.ID(j),
				Tag:       cfg.RBCTag(party.ID(j)),
				Net:       cfg.Net,
				Inbound:   cfg.RBCInbound(party.ID(j)),
				Predicate: predicate(party.ID(j)),
				Input:     input,
			})
			if err != nil {
				bgErr <- fmt.Errorf("acs: rbc[%d]: %w", j, err)
				return
			}
			rbcOut[j] <- out
		}()
	}

	abaInputCh := make([]chan byte, n)
	abaOutCh := make([]chan byte, n)
	coinCh := make([]chan aba.CoinKey, n)
	for j := 0; j < n; j++ {
		abaInputCh[j] = make(chan byte, 1)
		abaOutCh[j] = make(chan byte, 1)
		coinCh[j] = make(chan aba.CoinKey, 1)
	}

	for j := 0; j < n; j++ {
		j := j
		go func() {
			v, err := aba.Run(bgCtx, aba.Config{
				Self:    cfg.Self,
				N:       cfg.N,
				T:       cfg.T,
				Tag:     cfg.ABATag(party.ID(j)),
				Net:     cfg.Net,
				Inbound: cfg.ABAInbound(party.ID(j)),
				Input:   abaInputCh[j],
				Coin:    coinCh[j],
			})
			if err != nil {
				bgErr <- fmt.Errorf("acs: aba[%d]: %w", j, err)
				return
			}
			abaOutCh[j] <- v
		}()
	}

	rbcValues := make([][]party.ID, n)
	aggInputted := make([]bool, n)
	var inputMu sync.Mutex
	inputOnce := func(j int, v byte) {
		inputMu.Lock()
		defer inputMu.Unlock()
		if !aggInputted[j] {
			aggInputted[j] = true
			abaInputCh[j] <- v
		}
	}

	// rThread mirrors _recv_rbc: waits for this dealer's RBC output, feeds
	// its ABA instance, then blocks until every member it names has a
	// verified ACSS output before handing the instance's ABA a coin.
	rThreadDone := make([]chan struct{}, n)
	rThreadCancel := make([]context.CancelFunc, n)
	for j := 0; j < n; j++ {
		rThreadDone[j] = make(chan struct{})
		j := j
		rctx, cancel := context.WithCancel(bgCtx)
		rThreadCancel[j] = cancel
		go func() {
			defer close(rThreadDone[j])
			var raw []byte
			select {
			case raw = <-rbcOut[j]:
			case <-rctx.Done():
				return
			}
			members := bitmapMembers(cfg.N, raw)
			rbcValues[j] = toPartyIDs(members)
			inputOnce(j, 1)

			for {
				cfg.Signal.Clear()
				if allPresent(members, cfg.ACSSOutputs) {
					select {
					case coinCh[j] <- deriveCoinKey(cfg.ACSSOutputs, cfg.N, rbcValues[j]):
					case <-rctx.Done():
					}
					return
				}
				if cfg.Signal.Wait(rctx) != nil {
					return
				}
			}
		}()
	}

	// _recv_aba: collect every ABA's decision, and as soon as any decides
	// 1, feed 0 to every instance that hasn't been given an estimate yet.
	abaValues := make([]int, n)
	var abaMu sync.Mutex
	var collectors sync.WaitGroup
	collectors.Add(n)
	for j := 0; j < n; j++ {
		j := j
		go func() {
			defer collectors.Done()
			select {
			case v := <-abaOutCh[j]:
				abaMu.Lock()
				abaValues[j] = int(v)
				total := sum(abaValues)
				abaMu.Unlock()
				if total >= 1 {
					for k := 0; k < n; k++ {
						inputOnce(k, 0)
					}
				}
			case <-ctx.Done():
			}
		}()
	}
	collectors.Wait()

	select {
	case err := <-bgErr:
		return Result{}, err
	default:
	}

	if sum(abaValues) < 1 {
		return Result{}, fmt.Errorf("acs: no ABA instance decided 1")
	}

	for j := 0; j < n; j++ {
		if abaValues[j] == 1 {
			<-rThreadDone[j]
			if rbcValues[j] == nil {
				return Result{}, fmt.Errorf("acs: rbc[%d] decided but produced no proposal", j)
			}
		} else {
			rThreadCancel[j]()
			rbcValues[j] = nil
		}
	}

	mks := unionTruncated(rbcValues, cfg.N-cfg.T)
	return Result{MKS: mks, Proposals: rbcValues}, nil
}

func bitmapMembers(n int, raw []byte) []int {
	bm := codec.BitmapFromBytes(n, raw)
	return bm.Members()
}

func membersOf(ids []party.ID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func toPartyIDs(members []int) []party.ID {
	out := make([]party.ID, len(members))
	for i, m := range members {
		out[i] = party.ID(m)
	}
	return out
}

func allPresent(members []int, present func(party.ID) bool) bool {
	for _, m := range members {
		if !present(party.ID(m)) {
			return false
		}
	}
	return true
}

func sum(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}

// deriveCoinKey binds an ABA instance's coin to the accepted proposal and
// the dealer set whose ACSS output backs it, so that distinct proposals or
// distinct ACSS states never share a coin (original_source passes
// (acss_outputs, rbc_values[j]) itself; here it is collapsed to a digest
// since the simplified local coin only consumes bytes).
func deriveCoinKey(present func(party.ID) bool, n int, members []party.ID) aba.CoinKey {
	h := blake3.New()
	for i := 0; i < n; i++ {
		if present(party.ID(i)) {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	sorted := append([]party.ID(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, m := range sorted {
		_, _ = h.Write([]byte{byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24)})
	}
	return aba.CoinKey(h.Sum(nil))
}

// unionTruncated unions the non-nil proposal sets in ascending dealer order
// and stops as soon as it reaches size target, matching derive_key's mks
// construction in original_source/adkg/adkg.py.
func unionTruncated(sets [][]party.ID, target int) []party.ID {
	seen := make(map[party.ID]bool)
	var out []party.ID
	for _, set := range sets {
		if set == nil {
			continue
		}
		sorted := append([]party.ID(nil), set...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, id := range sorted {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			if len(out) >= target {
				break
			}
		}
		if len(out) >= target {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
