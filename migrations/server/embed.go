// Package server embeds the goose migrations for the multi-tenant server
// database. The SQL is kept portable so the same files apply to sqlite and
// postgres; goose only needs the right dialect at runtime.
package server

import "embed"

//go:embed *.sql
var FS embed.FS
