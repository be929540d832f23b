// Package migrations embeds the SQL schema migrations so binaries and tests
// apply them without depending on the working directory.
package migrations

import "embed"

// FS holds every *.sql migration in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
