// Package domain contains the caller-facing types of the document scanner:
// scan options, scan results and their wire names. The types are free of
// infrastructure concerns so the session coordinator, the HTTP API and the CLI
// can share them.
package domain
