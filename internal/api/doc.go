// Package api implements the HTTP REST API and WebSocket server for the AVR bridge.
//
// This package provides:
//   - REST endpoints for zone state, state history and receiver commands
//   - A paged view of the command audit log
//   - A WebSocket hub that streams every decoded state change
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET  /api/v1/health
//	GET  /api/v1/zones
//	GET  /api/v1/zones/{zone}/state
//	GET  /api/v1/zones/{zone}/history?setting=&limit=
//	POST /api/v1/zones/{zone}/commands
//	POST /api/v1/refresh?zone=
//	GET  /api/v1/commands?zone=&setting=&status=&limit=&offset=
//	GET  /api/v1/ws
//
// Commands are formatted by the bridge and published to the receiver's
// line transport. A 202 means the command was sent, not that the receiver
// applied it: the confirmed state arrives on the WebSocket stream.
//
// # Graceful Degradation
//
// Without a history or audit repository the matching route answers 503.
// Without an MQTT connection commands and refreshes answer 503; reads keep
// working from the in-memory state.
package api
