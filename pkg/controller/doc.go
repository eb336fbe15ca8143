// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - CORS: Adds CORS headers for the configured origins and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//
// Provided helpers:
//   - Pprof: Returns a router exposing net/http/pprof handlers.
package controller
