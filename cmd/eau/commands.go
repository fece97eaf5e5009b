package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"eau-tools/config"
	"eau-tools/convert"
	"eau-tools/debug"
	"eau-tools/eau"
	"eau-tools/theme"
	"eau-tools/tui"
	"eau-tools/widgets"
)

var (
	fromFormat string
	toFormat   string
	outputPath string
	stripNames bool
	method     string
	allMethods bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert between EAU, EAU-Text and MIDI",
	Long: `Convert a song. The source format is detected from its signature or
extension; the target defaults to MIDI for EAU input and to EAU otherwise.

Examples:
  eau convert song.eaut
  eau convert song.mid -o song.eau --instruments sdk.eau
  eau convert song.eau -t text -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check EAU files without converting them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var durationCmd = &cobra.Command{
	Use:   "duration <file>",
	Short: "Estimate how long a song plays",
	Long: `Estimate the play time of a song with one of the methods:
  delay      sum of delays only
  release    last moment any note ends
  roundup    release rounded up to a whole beat
  voicetail  note ends including envelope release tails`,
	Args: cobra.ExactArgs(1),
	RunE: runDuration,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Browse channels and events in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range config.Keys() {
			v, _ := cfg.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render(fmt.Sprintf("%-15s", key)), v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		return errors.Wrap(cfg.Save(), "save config")
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&fromFormat, "from", "f", "auto", "Source format (auto, eau, text, midi)")
	convertCmd.Flags().StringVarP(&toFormat, "to", "t", "", "Target format (eau, text, midi; default from config or source)")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, - for stdout (default: input name with new extension)")
	convertCmd.Flags().BoolVar(&stripNames, "strip-names", false, "Drop channel and note names")

	durationCmd.Flags().StringVarP(&method, "method", "m", "", "Estimation method (default from config)")
	durationCmd.Flags().BoolVarP(&allMethods, "all", "a", false, "Report every method")
}

func parseFormatFlag(name string) (convert.Format, error) {
	f, ok := convert.ParseFormat(name)
	if !ok {
		return 0, errors.Wrapf(eau.ErrUnsupportedFormat, "format %q", name)
	}
	return f, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	src, err := readInput(input)
	if err != nil {
		return err
	}
	from, err := parseFormatFlag(fromFormat)
	if err != nil {
		return err
	}
	if toFormat == "" {
		toFormat = cfg.DefaultFormat
	}
	to, err := parseFormatFlag(toFormat)
	if err != nil {
		return err
	}
	store, err := loadInstruments()
	if err != nil {
		return err
	}

	res, err := convert.Convert(to, src, from, convert.Options{
		Name:        input,
		Instruments: store,
		StripNames:  stripNames || cfg.StripNames,
		Warn:        warn(),
	})
	if err != nil {
		return errors.Wrap(err, input)
	}

	out := outputPath
	if out == "" {
		if input == "-" {
			out = "-"
		} else {
			out = strings.TrimSuffix(input, filepath.Ext(input)) + res.To.Ext()
		}
	}
	debug.Log("convert", "%s (%s) -> %s (%s), %d bytes, %d warnings", input, res.From, out, res.To, len(res.Data), warnings)
	if out == "-" {
		_, err = cmd.OutOrStdout().Write(res.Data)
		return err
	}
	if out == input {
		return errors.Errorf("refusing to overwrite %s", input)
	}
	return errors.Wrapf(os.WriteFile(out, res.Data, 0644), "write %s", out)
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		src, err := readInput(path)
		if err == nil {
			err = eau.Validate(src)
		}
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", errorStyle.Render("FAIL"), path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", valueStyle.Render("ok  "), path)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}

// loadSerial reads any supported format and returns it as a validated EAU serial
func loadSerial(path string) ([]byte, error) {
	src, err := readInput(path)
	if err != nil {
		return nil, err
	}
	store, err := loadInstruments()
	if err != nil {
		return nil, err
	}
	format := convert.Detect(path, src)
	if format == convert.FormatAuto {
		format = convert.FormatText
	}
	serial, err := convert.ToEAU(src, format, convert.Options{Name: path, Instruments: store, Warn: warn()})
	return serial, errors.Wrap(err, path)
}

func runDuration(cmd *cobra.Command, args []string) error {
	serial, err := loadSerial(args[0])
	if err != nil {
		return err
	}
	methods := eau.AllDurationMethods
	if !allMethods {
		name := method
		if name == "" {
			name = cfg.DurationMethod
		}
		m, ok := eau.ParseDurationMethod(name)
		if !ok {
			return errors.Errorf("unknown duration method %q", name)
		}
		methods = []eau.DurationMethod{m}
	}
	for _, m := range methods {
		ms, err := eau.EstimateDuration(serial, m)
		if err != nil {
			return errors.Wrap(err, m.String())
		}
		if len(methods) == 1 {
			fmt.Fprintln(cmd.OutOrStdout(), ms)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-10s", m)),
			valueStyle.Render(fmt.Sprintf("%8d ms", ms)),
			widgets.FormatMillis(ms))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	serial, err := loadSerial(args[0])
	if err != nil {
		return err
	}
	th, err := theme.Load(cfg.Palette)
	if err != nil {
		return errors.Wrap(err, "load palette")
	}
	m, err := tui.NewModel(filepath.Base(args[0]), serial, th)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
