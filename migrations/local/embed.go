// Package local embeds the goose migrations for the client-side database.
package local

import "embed"

//go:embed *.sql
var FS embed.FS
