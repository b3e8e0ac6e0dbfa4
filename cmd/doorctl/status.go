package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/doord/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current door state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 10 * time.Second}

		req, err := http.NewRequest(http.MethodGet, httpURL+"/v1/door", nil)
		if err != nil {
			return err
		}
		if token := activeRemoteToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("supervisor returned %s", resp.Status)
		}

		var body struct {
			Door     string   `json:"door"`
			Status   string   `json:"status"`
			Sessions []string `json:"sessions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return err
		}

		st := &model.DoorState{Sessions: body.Sessions}
		switch body.Status {
		case "open":
			st.Status = model.StatusOpen
		case "closed":
			st.Status = model.StatusClosed
		default:
			st.Status = model.StatusMoving
		}

		if jsonOutput {
			printStateJSON(st)
			return nil
		}
		printStateTable(st)
		return nil
	},
}
