// Package http provides HTTP handlers and middleware for the group
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /signup: registers an account and signs it in. Body:
//     {"email","display_name","password"}. Response mirrors /login.
//   - POST /login: issues a session token. Body: {"email","password"}.
//     The token is returned in the body and also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content.
//   - GET /schedules, POST /schedules: listing is scoped to the caller's own
//     schedules (administrators see all); creation exchanges the
//     `scheduleDTO` payload defined in schedule_handler.go.
//   - GET /schedules/{id}, DELETE /schedules/{id}: any authenticated holder
//     of a schedule link may read it; deletion requires the owner or an
//     administrator.
//   - POST /schedules/{id}/join: registers a participant identity for the
//     caller and remembers the binding for later visits.
//   - POST /schedules/{id}/dates/toggle: flips the caller's availability
//     mark on a calendar date.
//   - POST /schedules/{id}/options: proposes a time option.
//   - POST /schedules/{id}/options/{optionID}/vote: flips the caller's vote.
//   - DELETE /schedules/{id}/options/{optionID}: removes a time option.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
