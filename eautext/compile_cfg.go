package eautext

import (
	"eau-tools/eau"
)

// parseRange reads INT or INT..INT from the front of args
func parseRange(args []token, hi int) (lo, up int, rest []token, err error) {
	if len(args) == 0 {
		return 0, 0, nil, syntaxErr(0, "missing value")
	}
	if lo, err = parseInt(args[0], 0, hi); err != nil {
		return
	}
	up = lo
	rest = args[1:]
	if len(rest) > 0 && rest[0].is("..") {
		if len(rest) < 2 {
			return 0, 0, nil, syntaxErr(rest[0].line, "missing value after '..'")
		}
		if up, err = parseInt(rest[1], 0, hi); err != nil {
			return
		}
		rest = rest[2:]
	}
	return lo, up, rest, nil
}

// parseEnvelope reads `[=INIT[..HI]] [+LEG[..HI] =LEVEL[..HI][*]]...`
func parseEnvelope(st *statement) (eau.Envelope, error) {
	var env eau.Envelope
	if st.body != nil {
		return env, st.errorf("unexpected block")
	}
	args := st.args
	if len(args) > 0 && args[0].is("=") {
		lo, hi, rest, err := parseRange(args[1:], 0xffff)
		if err != nil {
			return env, withLine(err, args[0].line)
		}
		env.HasInit, env.Init, env.InitHi = true, uint16(lo), uint16(hi)
		args = rest
	}
	for len(args) > 0 {
		if !args[0].is("+") {
			return env, syntaxErr(args[0].line, "expected '+' leg, found %s", args[0])
		}
		line := args[0].line
		tlo, thi, rest, err := parseRange(args[1:], 0xffff)
		if err != nil {
			return env, withLine(err, line)
		}
		if len(rest) == 0 || !rest[0].is("=") {
			return env, syntaxErr(line, "leg without '=' level")
		}
		llo, lhi, rest, err := parseRange(rest[1:], 0xffff)
		if err != nil {
			return env, withLine(err, line)
		}
		env.Points = append(env.Points, eau.EnvelopePoint{
			Time: uint16(tlo), TimeHi: uint16(thi),
			Level: uint16(llo), LevelHi: uint16(lhi),
		})
		if len(rest) > 0 && rest[0].is("*") {
			if env.HasSustain {
				return env, syntaxErr(rest[0].line, "more than one sustain point")
			}
			env.HasSustain = true
			env.Sustain = len(env.Points) - 1
			rest = rest[1:]
		}
		args = rest
	}
	if len(env.Points) > eau.MaxEnvelopePoints {
		return env, st.errorf("%d points, at most %d allowed", len(env.Points), eau.MaxEnvelopePoints)
	}
	return env, nil
}

// withLine fills in a line number for errors raised without one
func withLine(err error, line int) error {
	if se, ok := err.(*eau.SyntaxError); ok && se.Line == 0 {
		se.Line = line
	}
	return err
}

func fmConfig(stmts []*statement) (*eau.FMConfig, error) {
	cfg := eau.NewFMConfig()
	seen := fieldSet{}
	for _, st := range stmts {
		if err := seen.claim(st); err != nil {
			return nil, err
		}
		var err error
		switch st.name() {
		case "rate":
			err = setU16(st, &cfg.Rate)
			cfg.Present |= eau.FMRate
		case "range":
			err = setU16(st, &cfg.Range)
			cfg.Present |= eau.FMRange
		case "levelenv":
			cfg.LevelEnv, err = parseEnvelope(st)
			cfg.Present |= eau.FMLevelEnv
		case "rangeenv":
			cfg.RangeEnv, err = parseEnvelope(st)
			cfg.Present |= eau.FMRangeEnv
		case "pitchenv":
			cfg.PitchEnv, err = parseEnvelope(st)
			cfg.Present |= eau.FMPitchEnv
		case "wheel":
			err = setU16(st, &cfg.WheelRange)
			cfg.Present |= eau.FMWheel
		case "lforate":
			err = setU16(st, &cfg.LFORate)
			cfg.Present |= eau.FMLFORate
		case "lfodepth":
			err = setU8(st, &cfg.LFODepth)
			cfg.Present |= eau.FMLFODepth
		case "lfophase":
			err = setU8(st, &cfg.LFOPhase)
			cfg.Present |= eau.FMLFOPhase
		default:
			err = syntaxErr(st.line(), "unknown fm field %q", st.name())
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func harshConfig(stmts []*statement) (*eau.HarshConfig, error) {
	cfg := eau.NewHarshConfig()
	seen := fieldSet{}
	for _, st := range stmts {
		if err := seen.claim(st); err != nil {
			return nil, err
		}
		var err error
		switch st.name() {
		case "shape":
			err = setShape(st, &cfg.Shape)
			cfg.Present |= eau.HarshShape
		case "levelenv":
			cfg.LevelEnv, err = parseEnvelope(st)
			cfg.Present |= eau.HarshLevelEnv
		case "pitchenv":
			cfg.PitchEnv, err = parseEnvelope(st)
			cfg.Present |= eau.HarshPitchEnv
		case "wheel":
			err = setU16(st, &cfg.WheelRange)
			cfg.Present |= eau.HarshWheel
		default:
			err = syntaxErr(st.line(), "unknown harsh field %q", st.name())
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func harmonicConfig(stmts []*statement) (*eau.HarmonicConfig, error) {
	cfg := eau.NewHarmonicConfig()
	seen := fieldSet{}
	for _, st := range stmts {
		if err := seen.claim(st); err != nil {
			return nil, err
		}
		var err error
		switch st.name() {
		case "harmonics":
			var coefs []int
			if coefs, err = st.ints(0, 0xffff); err == nil {
				if len(coefs) > 0xff {
					err = st.errorf("%d harmonics, at most 255 allowed", len(coefs))
				}
				cfg.Harmonics = cfg.Harmonics[:0]
				for _, v := range coefs {
					cfg.Harmonics = append(cfg.Harmonics, uint16(v))
				}
			}
			cfg.Present |= eau.HarmonicCoefficients
		case "levelenv":
			cfg.LevelEnv, err = parseEnvelope(st)
			cfg.Present |= eau.HarmonicLevelEnv
		case "pitchenv":
			cfg.PitchEnv, err = parseEnvelope(st)
			cfg.Present |= eau.HarmonicPitchEnv
		case "wheel":
			err = setU16(st, &cfg.WheelRange)
			cfg.Present |= eau.HarmonicWheel
		default:
			err = syntaxErr(st.line(), "unknown harmonic field %q", st.name())
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setU16(st *statement, dst *uint16) error {
	v, err := st.intArg(0, 0xffff)
	*dst = uint16(v)
	return err
}

func setU8(st *statement, dst *uint8) error {
	v, err := st.intArg(0, 0xff)
	*dst = uint8(v)
	return err
}

func setShape(st *statement, dst *uint8) error {
	if err := st.simple(1); err != nil {
		return err
	}
	if st.args[0].kind == tokIdent {
		for i, name := range eau.ShapeNames {
			if name == st.args[0].text {
				*dst = uint8(i)
				return nil
			}
		}
		return st.errorf("unknown shape %q", st.args[0].text)
	}
	return setU8(st, dst)
}

func compilePost(b *block) ([]byte, error) {
	stmts, err := b.parser().all()
	if err != nil {
		return nil, err
	}
	var stages []eau.PostStage
	for _, st := range stmts {
		var stage eau.PostStage
		switch st.name() {
		case "delay":
			v, err := positional(st, 0xffff, 0xff, 0xff, 0xff, 0xff)
			if err != nil {
				return nil, err
			}
			d := eau.NewDelayStage()
			fields := []func(int){
				func(x int) { d.Period = uint16(x) },
				func(x int) { d.Dry = uint8(x) },
				func(x int) { d.Wet = uint8(x) },
				func(x int) { d.Store = uint8(x) },
				func(x int) { d.Feedback = uint8(x) },
			}
			for i, x := range v {
				fields[i](x)
			}
			stage = eau.PostStage{ID: eau.StageDelay, Payload: d.Encode()}

		case "tremolo":
			v, err := positional(st, 0xffff, 0xff, 0xff)
			if err != nil {
				return nil, err
			}
			tr := eau.NewTremoloStage()
			fields := []func(int){
				func(x int) { tr.Period = uint16(x) },
				func(x int) { tr.Depth = uint8(x) },
				func(x int) { tr.Phase = uint8(x) },
			}
			for i, x := range v {
				fields[i](x)
			}
			stage = eau.PostStage{ID: eau.StageTremolo, Payload: tr.Encode()}

		case "waveshaper":
			levels, err := st.ints(0, 0xffff)
			if err != nil {
				return nil, err
			}
			ws := &eau.WaveshaperStage{}
			for _, l := range levels {
				ws.Levels = append(ws.Levels, uint16(l))
			}
			stage = eau.PostStage{ID: eau.StageWaveshaper, Payload: ws.Encode()}

		case "stage":
			if st.body != nil || len(st.args) == 0 {
				return nil, st.errorf("expected ID [0xDATA...]")
			}
			id, err := parseInt(st.args[0], 0, 0xff)
			if err != nil {
				return nil, err
			}
			stage.ID = uint8(id)
			for _, tok := range st.args[1:] {
				b, err := hexBytes(tok)
				if err != nil {
					return nil, err
				}
				stage.Payload = append(stage.Payload, b...)
			}

		default:
			return nil, syntaxErr(st.line(), "unknown post stage %q", st.name())
		}
		if len(stage.Payload) > 0xff {
			return nil, st.errorf("payload too long (%d bytes)", len(stage.Payload))
		}
		stages = append(stages, stage)
	}
	return eau.AppendPost(nil, stages), nil
}

// positional reads up to len(limits) integer arguments, each bounded by its limit
func positional(st *statement, limits ...int) ([]int, error) {
	if st.body != nil {
		return nil, st.errorf("unexpected block")
	}
	if len(st.args) > len(limits) {
		return nil, st.errorf("at most %d arguments", len(limits))
	}
	out := make([]int, len(st.args))
	for i, tok := range st.args {
		v, err := parseInt(tok, 0, limits[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
