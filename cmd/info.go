/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	session "github.com/allbin/go-serial-session"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <device>",
	Short: "Display the resolved session settings for a device",
	Long: `Display the link settings a session on the device would use, resolved
from flags, environment variables and the config file.

With --probe, a session is actually opened and closed to verify that the
device exists and accepts the settings.

Examples:
  serial-session info /dev/ttyUSB0
  serial-session info /dev/ttyUSB0 --baud 9600 --parity even
  serial-session info /dev/ttyUSB0 --probe`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := args[0]
		probe, _ := cmd.Flags().GetBool("probe")

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		sess, err := session.New(device, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg := sess.Config()

		rows := []table.Row{
			table.NewRow(table.RowData{"setting": "Device", "value": device}),
			table.NewRow(table.RowData{"setting": "Baud rate", "value": fmt.Sprintf("%d", cfg.BaudRate)}),
			table.NewRow(table.RowData{"setting": "Data bits", "value": fmt.Sprintf("%d", cfg.DataBits)}),
			table.NewRow(table.RowData{"setting": "Stop bits", "value": fmt.Sprintf("%d", cfg.StopBits)}),
			table.NewRow(table.RowData{"setting": "Parity", "value": cfg.Parity.String()}),
			table.NewRow(table.RowData{"setting": "Frame", "value": cfg.Frame()}),
		}

		if probe {
			rows = append(rows, table.NewRow(table.RowData{
				"setting": "Probe",
				"value":   probeDevice(sess),
			}))
		}

		t := table.New([]table.Column{
			table.NewColumn("setting", "Setting", 12),
			table.NewColumn("value", "Value", 32),
		}).WithRows(rows).BorderRounded()

		fmt.Println(t.View())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("probe", false, "Open and close a session to verify the device")
}

// probeDevice opens and closes a throwaway session against the device and
// reports the outcome.
func probeDevice(sess *session.Session) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := sess.Open(ctx); err != nil {
		return fmt.Sprintf("failed: %v", err)
	}
	sess.Close(context.Background())
	return "ok"
}
