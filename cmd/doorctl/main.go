package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	natsURL    string
	httpURL    string
	doorID     string
	jsonOutput bool
)

func defaultNATSURL() string {
	if s := os.Getenv("DOORD_NATS_URL"); s != "" {
		return s
	}
	if u := activeRemoteNATSURL(); u != "" {
		return u
	}
	return "nats://localhost:4222"
}

func defaultHTTPURL() string {
	if s := os.Getenv("DOORD_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteHTTPURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultDoorID() string {
	if s := os.Getenv("DOORD_DOOR_ID"); s != "" {
		return s
	}
	return "main_door"
}

var rootCmd = &cobra.Command{
	Use:   "doorctl <command>",
	Short: "CLI client for the doord supervisor",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats", defaultNATSURL(), "NATS server URL")
	rootCmd.PersistentFlags().StringVar(&httpURL, "http", defaultHTTPURL(), "doord HTTP base URL")
	rootCmd.PersistentFlags().StringVar(&doorID, "door", defaultDoorID(), "door identifier")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
