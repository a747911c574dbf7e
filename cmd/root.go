package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "roomcast",
	Short: "Real-time room assignment notifications for hostel students",
	Long: `roomcast keeps a live Server-Sent Events stream open for every signed-in
student tab and pushes room assignments to them the moment they are made.

Get started:
  roomcast student add alice    Register a student
  roomcast token alice          Mint a stream token for that student
  roomcast serve                Start the notification gateway
  roomcast listen <token>       Follow a student's stream in the terminal
  roomcast assign 1 B-204       Assign a room through the running gateway`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.roomcast/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		serveCmd,
		studentCmd,
		tokenCmd,
		assignCmd,
		listenCmd,
		configCmd,
		doctorCmd,
	)
}

func initLogging() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
