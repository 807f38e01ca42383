package cli

import (
	"bytes"
	"testing"

	"github.com/custodia-labs/flexdb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/flexdb/internal/core/services"
)

// resetFlags clears flag variables left over from earlier executions.
func resetFlags() {
	dbPath = ""
	tableName = ""
	configDir = ""
	verbose = false
	insertRaw = false
	selectPluck = ""
	selectNamespaced = false
}

// testConfigDir is the directory the in-memory config store reports.
const testConfigDir = "/home/test/.flexdb"

// setupTestServices wires in-memory stores into the command globals.
func setupTestServices() (*memory.DocumentStore, func()) {
	resetFlags()
	store := memory.NewDocumentStore()
	documentService = services.NewDocumentService(store)
	configStore = memory.NewConfigStore(testConfigDir)

	return store, func() {
		documentService = nil
		configStore = nil
		closeStore = nil
		resetFlags()
	}
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
