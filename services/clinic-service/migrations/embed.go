// Package migrations holds the clinic-service schema, applied with golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
