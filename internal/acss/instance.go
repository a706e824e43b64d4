package acss

import (
	"context"
	"fmt"

	"github.com/luxfi/adkg/internal/rbc"
	"github.com/luxfi/adkg/internal/transport"
	"github.com/luxfi/adkg/pkg/math/curve"
	"github.com/luxfi/adkg/pkg/party"
)

// Config parameterizes one dealer's ACSS instance, as seen by a single
// participant (who may or may not be the dealer).
type Config struct {
	N, T, SC     int
	Self, Dealer party.ID
	PrivateKey   curve.Scalar
	PublicKeys   map[party.ID]curve.Point
	Net          transport.Network

	RBCTag     transport.Tag
	RBCInbound <-chan transport.Envelope

	ControlTag     transport.Tag
	ControlInbound <-chan transport.Envelope

	// DealValues is only read when Self == Dealer: the sc secrets to
	// disperse, DealValues[0] being the real secret.
	DealValues []curve.Scalar
}

// Run executes one ACSS instance end to end: dispersal via RBC,
// verify-or-implicate, optional share recovery, and OK-counted
// termination (spec.md §4.5 "Termination of the ACSS instance").
func Run(ctx context.Context, cfg Config) (Output, error) {
	var input []byte
	if cfg.Self == cfg.Dealer {
		proposal, err := Deal(DealInput{
			N: cfg.N, T: cfg.T, SC: cfg.SC,
			Self:       cfg.Self,
			Values:     cfg.DealValues,
			PublicKeys: cfg.PublicKeys,
		})
		if err != nil {
			return Output{}, fmt.Errorf("acss: dealer %d: %w", cfg.Dealer, err)
		}
		input = proposal
	}

	predicate := func(_ context.Context, m []byte) bool {
		dp, err := decodeProposal(m)
		if err != nil {
			return false
		}
		_, _, err = verifyAsRecipient(dp, cfg.Self, cfg.PrivateKey, cfg.SC)
		return err == nil
	}

	rbcOut, err := rbc.Run(ctx, rbc.Config{
		Self:      cfg.Self,
		N:         cfg.N,
		T:         cfg.T,
		Leader:    cfg.Dealer,
		Tag:       cfg.RBCTag,
		Net:       cfg.Net,
		Inbound:   cfg.RBCInbound,
		Predicate: predicate,
		Input:     input,
	})
	if err != nil {
		return Output{}, fmt.Errorf("acss: dealer %d rbc: %w", cfg.Dealer, err)
	}

	dp, err := decodeProposal(rbcOut)
	if err != nil {
		return Output{}, fmt.Errorf("acss: dealer %d: undecodable proposal reached output: %w", cfg.Dealer, err)
	}

	send := func(to party.ID, m controlMsg) error {
		payload, err := transport.Marshal(m)
		if err != nil {
			return err
		}
		return cfg.Net.Send(cfg.Self, to, cfg.ControlTag, payload)
	}
	multicast := func(m controlMsg) error {
		for i := 0; i < cfg.N; i++ {
			if err := send(party.ID(i), m); err != nil {
				return err
			}
		}
		return nil
	}

	shares, sharedKey, verifyErr := verifyAsRecipient(dp, cfg.Self, cfg.PrivateKey, cfg.SC)
	valid := verifyErr == nil

	st := &recoveryState{
		self: cfg.Self, n: cfg.N, t: cfg.T, sc: cfg.SC,
	}

	if valid {
		if err := multicast(controlMsg{Kind: controlOK}); err != nil {
			return Output{}, err
		}
	} else {
		skBytes, err := cfg.PrivateKey.MarshalBinary()
		if err != nil {
			return Output{}, err
		}
		if err := multicast(controlMsg{Kind: controlImplicate, PrivateKey: skBytes}); err != nil {
			return Output{}, err
		}
		st.inRecovery = true
	}

	implicateSeen := make(map[party.ID]bool)
	okSenders := make(map[party.ID]bool)

	for {
		if st.inRecovery && !st.kdiSent && valid {
			kdiBytes, err := sharedKey.MarshalBinary()
			if err != nil {
				return Output{}, err
			}
			if err := multicast(controlMsg{Kind: controlKDIBroadcast, SharedKey: kdiBytes}); err != nil {
				return Output{}, err
			}
			st.kdiSent = true
		}

		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case env := <-cfg.ControlInbound:
			var msg controlMsg
			if err := transport.Unmarshal(env.Payload, &msg); err != nil {
				continue
			}
			switch msg.Kind {
			case controlOK:
				okSenders[env.From] = true

			case controlImplicate:
				if st.inRecovery || implicateSeen[env.From] {
					continue
				}
				implicateSeen[env.From] = true
				ok, err := handleImplication(dp, env.From, cfg.PublicKeys[env.From], msg.PrivateKey, cfg.SC)
				if err != nil {
					continue // InvalidPublicKey: ignore silently (spec.md §7)
				}
				if ok {
					st.inRecovery = true
				}

			case controlKDIBroadcast:
				if !st.inRecovery || st.allValid {
					continue
				}
				if err := st.handleKDIBroadcast(env.From, msg.SharedKey, dp); err != nil {
					continue
				}
				if st.allValid {
					shares = st.shares
					valid = true
					if err := multicast(controlMsg{Kind: controlOK}); err != nil {
						return Output{}, err
					}
				}
			}
		}

		if valid && len(okSenders) >= 2*cfg.T+1 {
			return Output{Dealer: cfg.Dealer, Shares: shares, Commits: dp.Commits}, nil
		}
	}
}
