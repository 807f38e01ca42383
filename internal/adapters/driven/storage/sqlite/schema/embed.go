// Package schema embeds the table definition for the SQLite store.
package schema

import (
	_ "embed"
	"strings"
)

// tableDDL creates one document table. The {{table}} placeholder is
// replaced with a quoted, already validated identifier.
//
//go:embed table.sql
var tableDDL string

// CreateTable returns the CREATE TABLE IF NOT EXISTS statement for table.
// quotedTable must already be a safe, quoted identifier.
func CreateTable(quotedTable string) string {
	return strings.ReplaceAll(tableDDL, "{{table}}", quotedTable)
}
