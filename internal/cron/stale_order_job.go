package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

const (
	staleOrderMaxAgeHours  = 48
	staleOrderBatchSize    = 200
	staleOrderCancelReason = "not confirmed by the vendor in time"
)

// StaleOrderJobParams configure the sweep that cancels orders no vendor
// confirmed.
type StaleOrderJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository orders.Repository
	Outbox     outboxEmitter
	MaxAge     time.Duration
}

// NewStaleOrderJob builds the cron job that auto-cancels orders stuck in
// pending confirmation.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = staleOrderMaxAgeHours * time.Hour
	}
	return &staleOrderJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repository,
		outbox: params.Outbox,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   orders.Repository
	outbox outboxEmitter
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-order-cancel" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.repo.FindStalePendingBefore(ctx, cutoff, staleOrderBatchSize)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	cancelled := 0
	for _, order := range stale {
		ok, err := j.cancelOrder(ctx, order)
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		if ok {
			cancelled++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"found":     len(stale),
		"cancelled": cancelled,
		"failed":    len(errs),
	})
	j.logg.Info(logCtx, "stale order sweep complete")
	return multierr.Combine(errs...)
}

// cancelOrder flips one order to cancelled and emits the event in the same
// transaction. The version guard makes the sweep lose to any concurrent
// vendor update, which is the outcome we want.
func (j *staleOrderJob) cancelOrder(ctx context.Context, order models.SplitOrder) (bool, error) {
	cancelled := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		now := j.now().UTC()
		ok, err := repo.UpdateGuarded(ctx, order.ID, order.Version, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cancelled = true
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateSplitOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OrderCancelledEvent{
				OrderID:          order.ID,
				ParentCheckoutID: order.ParentCheckoutID,
				CustomerID:       order.CustomerID,
				VendorID:         order.VendorID,
				CancelledAt:      now,
				Reason:           staleOrderCancelReason,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}
