// Package migrations embeds the schema SQL so it ships inside the
// binary rather than as loose files next to it, per SPEC_FULL.md §4.1.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
