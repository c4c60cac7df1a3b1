package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "campus-gate-control",
	Short: "Campus Gate Control - Vehicle access management for campus gates",
	Long: `A service that manages vehicle access at campus gates. Vehicles and
visitor passes carry QR codes or RFID tags; scanners at each gate post
the scanned code, the service makes the authorization decision, appends
it to an immutable access ledger, and drives the gate barrier with a
timed auto-close.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
