package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conncache",
	Short: "Shared, memoized database connection initializer",
	Long: `conncache resolves one database connection string and keeps a single live
connection for the whole process. Concurrent callers that ask for the
connection while it is being established share one driver attempt; a failed
attempt is forgotten so the next caller starts fresh.

Supported connection strings:
  mongodb://, mongodb+srv://      MongoDB
  postgres://, postgresql://      PostgreSQL

Connection string lookup order:
  --uri flag, $CONNCACHE_URI, $MONGODB_URI, $DATABASE_URL,
  then connection.uri in conncache.yaml

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed`,
	SilenceUsage: true,
}

type globalFlagValues struct {
	verbose    bool
	logFormat  string
	configPath string
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.verbose, "verbose", "v", false,
		"Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "",
		"Log output format: text|json (default: log.format in conncache.yaml, or text)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configPath, "config", "",
		"Path to a config file (default: ./conncache.yaml if present)")
}
