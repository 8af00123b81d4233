// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aisleplan/aisleplan/internal/config"
	"github.com/aisleplan/aisleplan/internal/metrics"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Dispatcher publishes BookingRequested events on an in-process Watermill
// pub/sub. It is the single seam between the recommendation surface and the
// external booking workflow.
//
// Thread Safety: safe for concurrent use; the underlying GoChannel pub/sub
// serializes delivery per subscriber.
type Dispatcher struct {
	pubsub         *gochannel.GoChannel
	publishTimeout time.Duration
	logger         zerolog.Logger
	clock          func() time.Time

	mu     sync.RWMutex
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock replaces the dispatcher's time source for deterministic event
// timestamps in tests.
func WithClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// NewDispatcher creates a booking dispatcher backed by a buffered GoChannel
// pub/sub.
func NewDispatcher(cfg *config.BookingConfig, logger zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
	}, newWatermillLogger(logger))

	d := &Dispatcher{
		pubsub:         pubsub,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger.With().Str("component", "booking").Logger(),
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchService emits one booking request for a single service.
func (d *Dispatcher) DispatchService(ctx context.Context, requestID, coupleID, serviceID string) error {
	event := BookingRequested{
		RequestID:   requestID,
		CoupleID:    coupleID,
		Kind:        KindService,
		ServiceIDs:  []string{serviceID},
		RequestedAt: d.clock(),
	}
	return d.dispatch(ctx, event)
}

// DispatchPackage emits one booking request carrying the package's member
// service IDs in their composed order.
func (d *Dispatcher) DispatchPackage(ctx context.Context, requestID, coupleID string, tier recommend.PackageTier, serviceIDs []string) error {
	if len(serviceIDs) == 0 {
		return fmt.Errorf("package booking requires at least one service")
	}
	event := BookingRequested{
		RequestID:   requestID,
		CoupleID:    coupleID,
		Kind:        KindPackage,
		ServiceIDs:  serviceIDs,
		PackageTier: tier,
		RequestedAt: d.clock(),
	}
	return d.dispatch(ctx, event)
}

func (d *Dispatcher) dispatch(ctx context.Context, event BookingRequested) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return fmt.Errorf("booking dispatcher is closed")
	}
	d.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		metrics.RecordBookingDispatch(string(event.Kind), err)
		return fmt.Errorf("marshal booking event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(event.Kind))
	msg.Metadata.Set("request_id", event.RequestID)

	err = d.publishWithTimeout(ctx, msg)
	metrics.RecordBookingDispatch(string(event.Kind), err)
	if err != nil {
		return fmt.Errorf("publish booking request: %w", err)
	}

	d.logger.Info().
		Str("request_id", event.RequestID).
		Str("kind", string(event.Kind)).
		Int("services", len(event.ServiceIDs)).
		Msg("Booking request dispatched")
	return nil
}

// publishWithTimeout bounds Publish, which blocks when the output buffer is
// full and no subscriber is draining.
func (d *Dispatcher) publishWithTimeout(ctx context.Context, msg *message.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- d.pubsub.Publish(TopicBookingRequested, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(d.publishTimeout):
		return fmt.Errorf("publish timed out after %s", d.publishTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns the stream of booking requests. The channel closes when
// ctx is canceled or the dispatcher is closed.
func (d *Dispatcher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return d.pubsub.Subscribe(ctx, TopicBookingRequested)
}

// Close shuts the pub/sub down. Further dispatches fail.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	return d.pubsub.Close()
}
