/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	session "github.com/allbin/go-serial-session"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <device>",
	Short: "Send data over a serial session",
	Long: `Open a session on the device, send one payload and close.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serial-session send /dev/ttyUSB0
- Interactive mode: serial-session send /dev/ttyUSB0 (prompts for input)

The send resolves only after the bytes have drained from the local output
buffer, so the command exiting means the data actually left the machine.

Example usage:
  serial-session send "Hello World" /dev/ttyUSB0
  serial-session send "AT+GMR" /dev/ttyUSB0 --newline
  serial-session send "héllo" /dev/ttyUSB0 --encoding ISO-8859-1
  echo "test" | serial-session send /dev/ttyUSB0
  serial-session send /dev/ttyUSB0  # Interactive mode`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var device string

		// Parse arguments: either "send data device" or "send device"
		if len(args) == 1 {
			device = args[0]
			// Check if we have stdin data
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				// No pipe input, use interactive mode
				data = promptForData()
			} else {
				// Read from stdin
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			device = args[1]
		}

		// Get flags
		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		encoding, _ := cmd.Flags().GetString("encoding")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		opts, err := sessionOptions()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Build the payload based on flags
		var payload session.Payload
		if hexMode {
			raw, err := parseHexInput(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			payload = session.Bytes(raw)
		} else {
			if addNewline {
				data += "\n"
			}
			payload = session.TextEncoding(data, encoding)
		}

		if err := sendPayload(device, payload, timeout, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().StringP("encoding", "e", "UTF-8", "Character encoding for text payloads (IANA name)")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for opening and sending")
}

func promptForData() string {
	// Styled prompt
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendPayload(device string, payload session.Payload, timeout time.Duration, opts ...session.Option) error {
	// Styled output
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	sess, err := session.New(device, opts...)
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Show connection attempt
	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), device)

	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer sess.Close(context.Background())

	fmt.Printf("%s Connected successfully\n", successStyle.Render("✓"))

	data, err := payload.Encode()
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	if err := sess.Send(ctx, payload); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Sent and drained %d bytes\n", successStyle.Render("✓"), len(data))

	// Show data preview (first 50 chars)
	preview := string(data)
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	// Replace non-printable characters for display
	preview = strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, preview)

	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), preview)

	return nil
}
