// Package migrations embeds the goose SQL migrations for the players,
// bans, whitelist, and ops tables, following internal/db/migrations'
// layout (an embed.FS handed to goose.SetBaseFS).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
