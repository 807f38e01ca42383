package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTable(t *testing.T) {
	ddl := CreateTable(`"people"`)

	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "people"`)
	assert.Contains(t, ddl, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, ddl, "json_data TEXT CHECK(json_valid(json_data))")
	assert.Contains(t, ddl, "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	assert.NotContains(t, ddl, "{{table}}")
}
