package convert

import (
	"bytes"

	"github.com/pkg/errors"

	"eau-tools/eau"
	"eau-tools/eaumidi"
	"eau-tools/eautext"
)

// Options carries the per-call policy of a conversion
type Options struct {
	// Name is the source file name, used for detection when the format is auto
	Name        string
	Instruments eaumidi.InstrumentStore
	StripNames  bool
	Warn        eau.WarnFunc
}

// Result is the converted data with the formats that were actually used
type Result struct {
	Data []byte
	From Format
	To   Format
}

// Convert translates src into dst. Auto formats are resolved with Detect and
// DefaultTarget. Every path goes through a validated EAU serial.
func Convert(dst Format, src []byte, srcFormat Format, opts Options) (*Result, error) {
	if srcFormat == FormatAuto {
		srcFormat = Detect(opts.Name, src)
		if srcFormat == FormatAuto {
			return nil, errors.Wrapf(eau.ErrUnsupportedFormat, "cannot tell the format of %q", opts.Name)
		}
	}
	if dst == FormatAuto {
		dst = DefaultTarget(srcFormat)
	}

	serial, err := ToEAU(src, srcFormat, opts)
	if err != nil {
		return nil, err
	}
	if opts.StripNames {
		if serial, err = eau.StripNames(serial); err != nil {
			return nil, errors.Wrap(err, "strip names")
		}
	}

	out, err := FromEAU(dst, serial, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out, From: srcFormat, To: dst}, nil
}

// ToEAU produces a validated EAU serial from any source format
func ToEAU(src []byte, format Format, opts Options) ([]byte, error) {
	var serial []byte
	var err error
	switch format {
	case FormatEAU:
		serial = src
	case FormatText:
		if serial, err = eautext.Compile(src); err != nil {
			return nil, errors.Wrap(err, "compile")
		}
	case FormatMIDI:
		serial, err = eaumidi.Import(bytes.NewReader(src), eaumidi.ImportOptions{
			Instruments: opts.Instruments,
			Warn:        opts.Warn,
		})
		if err != nil {
			return nil, errors.Wrap(err, "import midi")
		}
	default:
		return nil, errors.Wrapf(eau.ErrUnsupportedFormat, "source format %s", format)
	}
	if err := eau.Validate(serial); err != nil {
		return nil, errors.Wrap(err, "validate")
	}
	return serial, nil
}

// FromEAU renders a validated serial in the target format
func FromEAU(dst Format, serial []byte, opts Options) ([]byte, error) {
	switch dst {
	case FormatEAU:
		return serial, nil
	case FormatText:
		text, err := eautext.Decompile(serial, opts.Warn)
		return text, errors.Wrap(err, "decompile")
	case FormatMIDI:
		var buf bytes.Buffer
		err := eaumidi.Export(&buf, serial, eaumidi.ExportOptions{StripNames: opts.StripNames, Warn: opts.Warn})
		if err != nil {
			return nil, errors.Wrap(err, "export midi")
		}
		return buf.Bytes(), nil
	}
	return nil, errors.Wrapf(eau.ErrUnsupportedFormat, "target format %s", dst)
}
