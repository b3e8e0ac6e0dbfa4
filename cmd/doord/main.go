package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "doord",
	Short: "Door supervisor daemon",
	Long: `doord supervises a single door actuator: it consumes typed requests
from the message bus, runs them through the door state machine, and
publishes every resulting state snapshot.`,
}

func main() {
	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
