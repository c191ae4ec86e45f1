/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	session "github.com/allbin/go-serial-session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serial-session",
	Short: "Manage serial device sessions from the command line",
	Long: `serial-session drives a managed session over a serial device.

A session owns one open-to-close lifecycle on the device: it opens the
port, sequences drain-confirmed writes, and surfaces received data and
link faults as they happen.

Link settings can be given as flags, environment variables with the
SERIAL_SESSION_ prefix, or a config file:

  serial-session send "AT+GMR" /dev/ttyUSB0 --newline
  serial-session listen /dev/ttyUSB0 --baud 9600
  serial-session connect /dev/ttyUSB0 --parity even`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serial-session.yaml)")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "Baud rate")
	rootCmd.PersistentFlags().Int("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	rootCmd.PersistentFlags().Int("stop-bits", 1, "Stop bits: 1 or 2")
	rootCmd.PersistentFlags().StringP("parity", "p", "none", "Parity: none, odd, even, mark, space")

	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("data-bits", rootCmd.PersistentFlags().Lookup("data-bits"))
	viper.BindPFlag("stop-bits", rootCmd.PersistentFlags().Lookup("stop-bits"))
	viper.BindPFlag("parity", rootCmd.PersistentFlags().Lookup("parity"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".serial-session" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serial-session")
	}

	viper.SetEnvPrefix("SERIAL_SESSION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// sessionOptions builds the link options shared by all subcommands from
// the resolved flag/env/config values.
func sessionOptions() ([]session.Option, error) {
	parity, err := parseParity(viper.GetString("parity"))
	if err != nil {
		return nil, err
	}

	return []session.Option{
		session.WithBaudRate(viper.GetInt("baud")),
		session.WithDataBits(viper.GetInt("data-bits")),
		session.WithStopBits(viper.GetInt("stop-bits")),
		session.WithParity(parity),
	}, nil
}

func parseParity(s string) (session.Parity, error) {
	switch strings.ToLower(s) {
	case "", "none", "n":
		return session.ParityNone, nil
	case "odd", "o":
		return session.ParityOdd, nil
	case "even", "e":
		return session.ParityEven, nil
	case "mark", "m":
		return session.ParityMark, nil
	case "space", "s":
		return session.ParitySpace, nil
	default:
		return session.ParityNone, fmt.Errorf("unknown parity %q (use none, odd, even, mark or space)", s)
	}
}
