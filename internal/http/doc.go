// Package http exposes the booking service over JSON.
//
// The router serves:
//   - GET /bookings and POST /bookings: list every reservation or create one.
//     Creation answers 201 with the stored reservation, 409 with the ids of
//     the conflicting reservations, or 422 with field errors.
//   - GET /bookings/room/{roomId}/date/{date}: reservations of one room on one date.
//   - GET, PUT and DELETE /bookings/{id}: read, replace or cancel a reservation.
//   - POST /bookings/check: report conflicts for a candidate without writing.
//     The answer can be stale by the time the caller submits.
//   - GET /rooms and GET /rooms/{roomId}: the room catalog.
//   - GET /rooms/{roomId}/slots?date=YYYY-MM-DD: slot grid and start choices.
//     Optional start, end and step override the grid; from adds end choices.
//   - GET /healthz: liveness, never behind the API key.
//
// Request and response DTOs live next to their handlers.
package http
