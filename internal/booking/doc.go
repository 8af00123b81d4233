// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

/*
Package booking publishes booking requests for the external booking workflow.

The recommendation engine never books anything itself: the HTTP layer turns a
"book this service" or "book this package" call into a BookingRequested event
on a Watermill pub/sub. Booking a package emits the package's member service
IDs as one ordered batch so the downstream workflow can reserve them
sequentially.

The Auditor is a supervised subscriber that logs every dispatched request,
giving operators a trace of what left the system.
*/
package booking
