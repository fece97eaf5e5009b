package convert

import (
	"bytes"
	"path/filepath"
	"strings"

	"eau-tools/eau"
)

// Format names one of the three song representations
type Format int

const (
	FormatAuto Format = iota
	FormatEAU
	FormatText
	FormatMIDI
)

var formatNames = map[Format]string{
	FormatAuto: "auto",
	FormatEAU:  "eau",
	FormatText: "text",
	FormatMIDI: "midi",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Ext returns the conventional file extension, dot included
func (f Format) Ext() string {
	switch f {
	case FormatEAU:
		return ".eau"
	case FormatText:
		return ".eaut"
	case FormatMIDI:
		return ".mid"
	}
	return ""
}

// ParseFormat accepts a format name or one of its aliases
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, true
	case "eau", "bin", "binary":
		return FormatEAU, true
	case "text", "eaut", "txt":
		return FormatText, true
	case "midi", "mid", "smf":
		return FormatMIDI, true
	}
	return FormatAuto, false
}

// Detect guesses the format of src from its signature, then from the file
// name. It returns FormatAuto when neither is conclusive.
func Detect(name string, src []byte) Format {
	switch {
	case eau.IsEAU(src):
		return FormatEAU
	case bytes.HasPrefix(src, []byte("MThd")):
		return FormatMIDI
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".eau":
		return FormatEAU
	case ".eaut", ".txt":
		return FormatText
	case ".mid", ".midi", ".smf":
		return FormatMIDI
	}
	return FormatAuto
}

// DefaultTarget is the format a conversion produces when none is requested
func DefaultTarget(src Format) Format {
	if src == FormatEAU {
		return FormatMIDI
	}
	return FormatEAU
}
