// Package migrations embeds the baseline schema of the task store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
