// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package booking

import (
	"time"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// TopicBookingRequested is the pub/sub topic for outgoing booking requests.
const TopicBookingRequested = "booking.requested"

// Kind distinguishes a single-service booking from a package booking.
type Kind string

const (
	KindService Kind = "service"
	KindPackage Kind = "package"
)

// BookingRequested is the event emitted when a couple books a recommended
// service or package. For a package booking, ServiceIDs preserves the
// package's member order so the downstream workflow reserves them
// sequentially.
type BookingRequested struct {
	RequestID   string                `json:"request_id"`
	CoupleID    string                `json:"couple_id"`
	Kind        Kind                  `json:"kind"`
	ServiceIDs  []string              `json:"service_ids"`
	PackageTier recommend.PackageTier `json:"package_tier,omitempty"`
	RequestedAt time.Time             `json:"requested_at"`
}
