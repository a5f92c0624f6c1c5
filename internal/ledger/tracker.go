package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// ConfirmationChannel is the signal-bus channel carrying confirmation state
// transitions.
const ConfirmationChannel = "confirmations"

// TrackerConfig bounds the confirmation poll loop.
type TrackerConfig struct {
	// PollInterval is the wait between status polls.
	PollInterval time.Duration

	// MaxAttempts is the total poll budget before the tracker gives up
	// and reports TimedOut.
	MaxAttempts int
}

// DefaultTrackerConfig matches the empirical production tuning: one poll
// per second for ten seconds.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		PollInterval: time.Second,
		MaxAttempts:  10,
	}
}

// ConfirmationResult is the terminal outcome of tracking one signature.
type ConfirmationResult struct {
	Signature solana.Signature
	State     domain.ConfirmationState

	// ExecErr is set only when State is Failed.
	ExecErr *domain.ExecutionError
}

// Tracker polls signature status until a terminal state or until the retry
// budget is exhausted. One Tracker serves many signatures; each Track call
// runs its own sequential poll loop, and callers may track several
// signatures concurrently.
type Tracker struct {
	status domain.StatusReader
	cfg    TrackerConfig
	bus    domain.SignalBus // optional
	logger *slog.Logger
}

// NewTracker creates a Tracker. bus may be nil when no event broadcasting
// is wanted.
func NewTracker(status domain.StatusReader, cfg TrackerConfig, bus domain.SignalBus, logger *slog.Logger) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Tracker{
		status: status,
		cfg:    cfg,
		bus:    bus,
		logger: logger.With(slog.String("component", "tracker")),
	}
}

// Track runs the confirmation state machine for one signature:
//
//	Submitted -> {Pending, Confirmed, Finalized, Failed, TimedOut}
//
// No status keeps the machine in Submitted; a processed-only observation
// moves it to Pending; an attached execution error terminates in Failed
// immediately without consuming the remaining budget; confirmed/finalized
// commitment terminates in success. Exhausting the budget yields TimedOut,
// which means "status unknown", never "failed".
//
// Cancelling ctx stops polling only — the submitted transaction is not and
// cannot be retracted from the ledger.
func (t *Tracker) Track(ctx context.Context, sig solana.Signature) (ConfirmationResult, error) {
	state := domain.ConfirmationSubmitted
	t.publish(ctx, sig, state)

	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		status, err := t.status.SignatureStatus(ctx, sig)
		if err != nil {
			if ctx.Err() != nil {
				t.logger.WarnContext(ctx, "tracking cancelled; submitted transaction is not retracted",
					slog.String("signature", sig.String()),
				)
				return ConfirmationResult{Signature: sig, State: state}, domain.ErrContextDone
			}
			// A failed poll is indistinguishable from "no status yet";
			// spend the attempt and keep going.
			t.logger.WarnContext(ctx, "status poll failed",
				slog.String("signature", sig.String()),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		} else {
			next, result := t.advance(sig, status, state)
			if result != nil {
				t.publish(ctx, sig, result.State)
				return *result, nil
			}
			if next != state {
				state = next
				t.publish(ctx, sig, state)
			}
		}

		if attempt == t.cfg.MaxAttempts {
			break
		}
		if err := sleepCtx(ctx, t.cfg.PollInterval); err != nil {
			t.logger.WarnContext(ctx, "tracking cancelled; submitted transaction is not retracted",
				slog.String("signature", sig.String()),
			)
			return ConfirmationResult{Signature: sig, State: state}, domain.ErrContextDone
		}
	}

	t.publish(ctx, sig, domain.ConfirmationTimedOut)
	return ConfirmationResult{Signature: sig, State: domain.ConfirmationTimedOut}, nil
}

// advance applies one observed status to the state machine. It returns the
// next non-terminal state, or a terminal result.
func (t *Tracker) advance(sig solana.Signature, status domain.SignatureStatus, state domain.ConfirmationState) (domain.ConfirmationState, *ConfirmationResult) {
	if !status.Known {
		return state, nil
	}
	if status.Err != nil {
		return state, &ConfirmationResult{
			Signature: sig,
			State:     domain.ConfirmationFailed,
			ExecErr:   executionError(status.Err),
		}
	}
	switch status.Commitment {
	case domain.CommitmentFinalized:
		return state, &ConfirmationResult{Signature: sig, State: domain.ConfirmationFinalized}
	case domain.CommitmentConfirmed:
		return state, &ConfirmationResult{Signature: sig, State: domain.ConfirmationConfirmed}
	default:
		return domain.ConfirmationPending, nil
	}
}

// confirmationEvent is the JSON payload broadcast on state transitions.
type confirmationEvent struct {
	Signature string                   `json:"signature"`
	State     domain.ConfirmationState `json:"state"`
	At        time.Time                `json:"at"`
}

func (t *Tracker) publish(ctx context.Context, sig solana.Signature, state domain.ConfirmationState) {
	if t.bus == nil {
		return
	}
	payload, err := json.Marshal(confirmationEvent{
		Signature: sig.String(),
		State:     state,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := t.bus.Publish(ctx, ConfirmationChannel, payload); err != nil {
		t.logger.WarnContext(ctx, "publish confirmation event failed",
			slog.String("signature", sig.String()),
			slog.String("error", err.Error()),
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
