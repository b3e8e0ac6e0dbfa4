package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/doord/internal/idgen"
	"github.com/groblegark/doord/internal/model"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Request the door open and hold a claim",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			var err error
			session, err = idgen.Generate()
			if err != nil {
				return err
			}
		}

		st, err := submitRequest(model.ModeOpen, session)
		if err != nil {
			return err
		}

		if jsonOutput {
			printStateJSON(st)
			return nil
		}
		fmt.Printf("Session: %s\n", session)
		printStateTable(st)
		return nil
	},
}

func init() {
	openCmd.Flags().String("session", "", "session identifier (generated when omitted)")
}
