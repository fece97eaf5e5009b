package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"eau-tools/config"
	"eau-tools/debug"
	"eau-tools/eau"
	"eau-tools/eaumidi"
)

var version = "0.1.0"

var (
	cfg         *config.Config
	quiet       bool
	debugLog    bool
	instruments string
	warnings    int
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eau",
	Short: "Convert, check and inspect EAU songs",
	Long: `eau converts between the EAU binary song format, its EAU-Text source
form and Standard MIDI Files, validates untrusted EAU data and estimates
how long a song plays.

Examples:
  eau convert song.eaut             # compile to song.eau
  eau convert song.eau -t midi      # export to song.mid
  eau duration song.eau --all
  eau inspect song.mid`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print warnings")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Write a debug log to ~/.config/eau-tools/debug.log")
	rootCmd.PersistentFlags().StringVar(&instruments, "instruments", "", "EAU file of instruments keyed by program (overrides config)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(durationCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

// setup loads the config and applies it under the command line flags
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	if debugLog || cfg.Debug {
		if err := debug.Enable(); err != nil {
			return errors.Wrap(err, "enable debug log")
		}
	}
	if instruments == "" {
		instruments = cfg.Instruments
	}
	debug.Log("cli", "%s %v", cmd.CommandPath(), args)
	return nil
}

// warn prints a non-fatal diagnostic and logs it
func warn() eau.WarnFunc {
	return debug.Warner("warn", func(err error) {
		warnings++
		if !quiet {
			fmt.Fprintln(os.Stderr, warnStyle.Render("warning: ")+err.Error())
		}
	})
}

// loadInstruments reads the instrument store named by --instruments or the config
func loadInstruments() (eaumidi.InstrumentStore, error) {
	if instruments == "" {
		return nil, nil
	}
	data, err := os.ReadFile(instruments)
	if err != nil {
		return nil, errors.Wrap(err, "read instruments")
	}
	store, err := eaumidi.LoadInstruments(data)
	if err != nil {
		return nil, errors.Wrapf(err, "instruments %s", instruments)
	}
	debug.Log("cli", "loaded %d instruments from %s", store.Len(), instruments)
	return store, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}
