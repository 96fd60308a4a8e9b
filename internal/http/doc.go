// Package http exposes the scheduler over a JSON API routed with gorilla/mux.
//
// The router exposes the following endpoints:
//   - POST /sessions: exchanges {"username","password"} for a bearer token.
//     Response: {"token","expires_at","user"}. Every other endpoint except
//     GET /healthz requires "Authorization: Bearer <token>".
//   - GET /venues, POST /venues, GET|PUT|DELETE /venues/{id}: venue catalog
//     exchanging the `venueDTO` payload defined in venue_handler.go.
//     PUT /venues/{id}/status takes {"active": bool}.
//   - GET /venues/{id}/calendar.ics: the venue's bookings as an iCalendar feed.
//   - GET /bookings, POST /bookings, GET|PUT|DELETE /bookings/{id},
//     POST /bookings/{id}/confirm, POST /bookings/{id}/cancel: booking
//     lifecycle exchanging the `bookingDTO` payload defined in
//     booking_handler.go. GET /bookings accepts venue_id, dj_username,
//     active and reference (YYYY-MM-DD) query parameters; each result carries
//     its next occurrence.
//   - GET /users, POST /users, GET|PUT /users/{username},
//     PUT /users/{username}/permissions: account administration exchanging the
//     `userDTO` payload defined in user_handler.go.
//
// Errors are JSON objects with "message" and, where relevant, "error_code",
// per-field "errors" (422) or "conflicting_booking_id" (409).
package http
