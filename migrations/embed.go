// Package migrations carries the versioned SQL schema compiled into the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
