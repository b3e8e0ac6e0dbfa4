package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/doord/internal/model"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release a door-open claim",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			return fmt.Errorf("--session is required")
		}

		st, err := submitRequest(model.ModeRelease, session)
		if err != nil {
			return err
		}

		if jsonOutput {
			printStateJSON(st)
			return nil
		}
		printStateTable(st)
		return nil
	},
}

func init() {
	releaseCmd.Flags().String("session", "", "session identifier holding the claim")
}
