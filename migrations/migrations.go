// Package migrations embeds the SQL schema migrations so they ship inside
// the binary and can be applied by goose at startup or from tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
