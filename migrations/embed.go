// Package migrations embeds the SQL schema applied by "smartrx-server migrate".
package migrations

import "embed"

// Files holds every NNN_name.sql migration in this directory.
//
//go:embed *.sql
var Files embed.FS
