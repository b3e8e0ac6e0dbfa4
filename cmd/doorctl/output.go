package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/groblegark/doord/internal/model"
	"github.com/groblegark/doord/internal/ui"
)

func printStateJSON(st *model.DoorState) {
	out := struct {
		Door     string   `json:"door"`
		Status   string   `json:"status"`
		Sessions []string `json:"sessions"`
	}{Door: doorID, Status: st.Status.String(), Sessions: st.Sessions}
	if out.Sessions == nil {
		out.Sessions = []string{}
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

func printStateTable(st *model.DoorState) {
	color := ui.ShouldUseColor()
	fmt.Printf("%s: %s\n", doorID, ui.Colorize(st.Status.String(), statusColor(st.Status), color))
	if len(st.Sessions) > 0 {
		fmt.Printf("  held by: %s\n", strings.Join(st.Sessions, ", "))
	}
}

func statusColor(s model.DoorStatus) string {
	switch s {
	case model.StatusOpen:
		return ui.Green
	case model.StatusMoving:
		return ui.Yellow
	default:
		return ui.Red
	}
}
