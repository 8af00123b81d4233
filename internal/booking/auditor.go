// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package booking

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Auditor consumes booking requests and writes an audit line for each one.
// It implements suture.Service and runs under the messaging supervisor
// subtree, giving operators a trace of every request handed to the booking
// workflow.
type Auditor struct {
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewAuditor creates an auditor reading from dispatcher.
func NewAuditor(dispatcher *Dispatcher, logger zerolog.Logger) *Auditor {
	return &Auditor{
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "booking-audit").Logger(),
	}
}

// Serve implements suture.Service interface.
// Consumes booking requests until the context is canceled. Messages are
// acked even when they fail to decode; a malformed event is logged, not
// redelivered forever.
func (a *Auditor) Serve(ctx context.Context) error {
	messages, err := a.dispatcher.Subscribe(ctx)
	if err != nil {
		return err
	}

	a.logger.Info().Msg("Booking auditor started")

	for msg := range messages {
		var event BookingRequested
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			a.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Malformed booking event")
			msg.Ack()
			continue
		}

		a.logger.Info().
			Str("request_id", event.RequestID).
			Str("couple_id", event.CoupleID).
			Str("kind", string(event.Kind)).
			Strs("service_ids", event.ServiceIDs).
			Str("package_tier", string(event.PackageTier)).
			Time("requested_at", event.RequestedAt).
			Msg("Booking request audited")
		msg.Ack()
	}

	a.logger.Info().Msg("Booking auditor stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (a *Auditor) String() string {
	return "booking-auditor"
}
