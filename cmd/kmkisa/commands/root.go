package commands

import (
	"context"
	"fmt"
	"kilometrikisa/lib/configutil"
	"kilometrikisa/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	envPath    *string
	debug      *bool
	dumpDir    *string
)

var rootCmd = &cobra.Command{
	Use:   "kmkisa",
	Short: "kmkisa is a CLI for your kilometrikisa.fi account, contests and leaderboards.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*debug)
		return configutil.LoadEnv(*envPath)
	},
	SilenceUsage: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "kmkisa.json5", "The config file with the site and account settings.")
	envPath = rootCmd.PersistentFlags().String("env", ".env", "A dotenv file to load credentials from.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log requests and other debug output.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every request and response to this directory, \"<dev_state>/dumps\" works.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
