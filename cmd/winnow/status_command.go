package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var addressFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			address := strings.TrimSpace(addressFlag)
			if address == "" {
				address = cfg.Paths.APIBind
			}

			client := &http.Client{Timeout: 3 * time.Second}
			resp, err := client.Get("http://" + address + "/api/status")
			if err != nil {
				return fmt.Errorf("daemon not reachable at %s; start it with `winnowd` (%w)", address, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon status: unexpected response %d", resp.StatusCode)
			}

			var status struct {
				Running         bool   `json:"running"`
				Sessions        int    `json:"sessions"`
				SettingsDBPath  string `json:"settings_db_path"`
				LockFilePath    string `json:"lock_file_path"`
				SettingsVersion int64  `json:"settings_version"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decode daemon status: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Field", "Value"},
				[]table.Row{
					{"Running", yesNo(status.Running)},
					{"Sessions", status.Sessions},
					{"Settings DB", status.SettingsDBPath},
					{"Lock file", status.LockFilePath},
					{"Settings version", status.SettingsVersion},
				},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&addressFlag, "address", "", "Daemon API address (defaults to the configured api_bind)")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
