// Package cli implements the flexdb command line on top of the driving ports.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flexdb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/flexdb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/flexdb/internal/core/domain"
	"github.com/custodia-labs/flexdb/internal/core/ports/driven"
	"github.com/custodia-labs/flexdb/internal/core/ports/driving"
	"github.com/custodia-labs/flexdb/internal/core/services"
	"github.com/custodia-labs/flexdb/internal/logger"
)

// Configuration keys.
const (
	configKeyDBPath = "database.path"
	configKeyTable  = "database.table"
)

// defaultDBFile is created next to config.toml when no path is configured.
const defaultDBFile = "flex.db"

// annotationNoStore marks commands that never touch the database.
const annotationNoStore = "flexdb/no-store"

var version = "dev"

var (
	dbPath    string
	tableName string
	configDir string
	verbose   bool
)

// Services used by commands. Tests inject in-memory implementations.
var (
	documentService driving.DocumentService
	configStore     driven.ConfigStore
	closeStore      func() error
)

var rootCmd = &cobra.Command{
	Use:   "flexdb",
	Short: "Store and query JSON documents in SQLite",
	Long: `flexdb keeps schemaless JSON documents in a single SQLite table and
queries them by top-level field using SQLite's JSON functions.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (default from config, then ~/.flexdb/flex.db)")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "Document table (default from config, then \"flex\")")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Configuration directory (default ~/.flexdb)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print diagnostics to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and closes any store it opened.
func Execute() error {
	defer closeOpenStore()
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if configStore == nil {
		cfg, err := file.NewConfigStore(configDir)
		if err != nil {
			return err
		}
		configStore = cfg
	}

	if cmd.Annotations[annotationNoStore] == "true" || documentService != nil {
		return nil
	}

	path, table := resolveDatabase()
	logger.Debug("opening store", "path", path, "table", table)

	store, err := sqlite.NewStore(path, sqlite.WithTable(table))
	if err != nil {
		return err
	}
	documentService = services.NewDocumentService(store)
	closeStore = store.Close
	return nil
}

// resolveDatabase picks the database path and table: flags first, then
// configuration, then defaults.
func resolveDatabase() (string, string) {
	path := dbPath
	if path == "" {
		path = configStore.GetString(configKeyDBPath)
	}
	if path == "" {
		path = filepath.Join(filepath.Dir(configStore.Path()), defaultDBFile)
	}

	table := tableName
	if table == "" {
		table = configStore.GetString(configKeyTable)
	}
	if table == "" {
		table = domain.DefaultTable
	}

	return path, table
}

func closeOpenStore() {
	if closeStore == nil {
		return
	}
	if err := closeStore(); err != nil {
		logger.Warn("closing store", "error", err)
	}
	closeStore = nil
	documentService = nil
}
