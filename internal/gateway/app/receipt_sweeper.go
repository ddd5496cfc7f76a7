package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/smsdispatch/gateway/internal/gateway/domain"
	"github.com/smsdispatch/gateway/internal/gateway/repository"
)

const sweepBatchSize = 500

// ReceiptSweeper applies the receipt-wait policy: a message that stayed in
// "sent" past the wait timeout gets a heuristic verdict. Channels whose
// provider can push receipts get "delivery_unknown" (the receipt was expected
// and never came); channels with no receipt mechanism get "assumed_delivered".
type ReceiptSweeper struct {
	repo           repository.MessageRepository
	receiptCapable map[string]bool // channel-type tag -> provider pushes DLRs
	waitTimeout    time.Duration
	interval       time.Duration
	logger         *slog.Logger
}

func NewReceiptSweeper(
	repo repository.MessageRepository,
	receiptCapable map[string]bool,
	waitTimeout, interval time.Duration,
	logger *slog.Logger,
) *ReceiptSweeper {
	return &ReceiptSweeper{
		repo:           repo,
		receiptCapable: receiptCapable,
		waitTimeout:    waitTimeout,
		interval:       interval,
		logger:         logger.With("service", "receipt_sweeper"),
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *ReceiptSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Receipt-wait sweeper started",
		"wait_timeout", s.waitTimeout.String(), "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Receipt-wait sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Receipt-wait sweep failed", "error", err)
			}
		}
	}
}

// Sweep processes one batch and returns how many messages it transitioned.
func (s *ReceiptSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.waitTimeout)
	stale, err := s.repo.ListAwaitingReceipt(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var transitioned int
	for _, msg := range stale {
		target := domain.MessageStatusAssumedDelivered
		if s.receiptCapable[msg.ChannelType] {
			target = domain.MessageStatusDeliveryUnknown
		}
		if !msg.Status.CanTransitionTo(target) {
			// A receipt may have landed between the query and now.
			continue
		}
		if err := s.repo.UpdateStatus(ctx, msg.ID, target); err != nil {
			s.logger.ErrorContext(ctx, "Failed to apply receipt-wait verdict",
				"error", err, "message_id", msg.ID, "target", target)
			continue
		}
		receiptSweepCounter.WithLabelValues(string(target)).Inc()
		transitioned++
		s.logger.InfoContext(ctx, "Receipt-wait verdict applied",
			"message_id", msg.ID, "from", msg.Status, "to", target)
	}
	return transitioned, nil
}
