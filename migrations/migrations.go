// AngelaMos | 2026
// migrations.go

// Package migrations embeds the schema so the binary can apply it on
// start without shipping SQL files alongside.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
