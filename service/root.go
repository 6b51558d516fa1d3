package service

import (
	"errors"
	"fmt"
	"os"

	"yatube/app/auth"
	"yatube/app/config"
	"yatube/pkg/logger"

	"github.com/spf13/cobra"
)

// Version is reported by the version command.
const Version = "1.0.0"

var osExit = os.Exit

var cfg *config.Config

// errSilentExit marks a failure that has already been reported to the user.
var errSilentExit = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "yatube",
	Short: "yatube blog server and maintenance tool",
	Long: `yatube runs the blog and manages its database.

  yatube serve                       Start the HTTP server
  yatube init                        Create an empty Badger database
  yatube backup                      Write a backup into BACKUP_DIR
  yatube restore <file>              Load a backup into the database
  yatube group create --slug cats    Create a group`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		dbPath = cfg.Storage.BadgerPath
		backupDir = cfg.Backup.Dir
		auth.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "yatube version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// HandleCommand runs the CLI with args and returns its exit code.
func HandleCommand(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilentExit) {
			fmt.Println("Error:", err)
		}
		return 1
	}
	return 0
}

// Execute runs the CLI with the process arguments and exits on failure.
func Execute() {
	logger.Init()
	if code := HandleCommand(os.Args[1:]); code != 0 {
		osExit(code)
	}
}
