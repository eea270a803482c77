package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	value     string
	number    string
	key       string
	warn      string
	err       string
}

var palettes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;208m",
		value:     "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		key:       "\x1b[38;5;65m",
		warn:      "\x1b[38;5;179m",
		err:       "\x1b[38;5;167m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;214m",
		value:     "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		key:       "\x1b[38;5;246m",
		warn:      "\x1b[38;5;214m",
		err:       "\x1b[38;5;167m",
	},
}

var (
	currentTheme = "everforest"
	colorEnabled = true
)

// SetTheme configures the color scheme for console output.
// Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

// SetColor toggles ANSI colors in console output
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func paint(color, s string) string {
	if !colorEnabled || s == "" {
		return s
	}
	return color + s + colorReset
}

// consoleEncoder writes one compact line per entry:
//
//	13:04:35  build  Emitted declaration  src/index.d.ts -> index.d.ts  3ms
type consoleEncoder struct {
	zapcore.Encoder // base encoder absorbs With() fields
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := palettes[currentTheme]
	line := buffer.NewPool().Get()

	line.AppendString(paint(p.time, ent.Time.Format("15:04:05")))

	if lvl := levelLabel(ent.Level, p); lvl != "" {
		line.AppendString("  ")
		line.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(paint(p.component, ent.LoggerName))
	}

	line.AppendString("  ")
	line.AppendString(ent.Message)

	if rendered := renderFields(fields, p); rendered != "" {
		line.AppendString("  ")
		line.AppendString(rendered)
	}

	line.AppendString("\n")
	return line, nil
}

func levelLabel(level zapcore.Level, p palette) string {
	switch level {
	case zapcore.DebugLevel:
		return paint(p.key, "debug")
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return paint(colorBold+p.warn, "WARN")
	default:
		return paint(colorBold+p.err, level.CapitalString())
	}
}

// fieldValue extracts the printable value of a zap field
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields prints input/output as an arrow, durations with a unit and
// everything else as key=value in the order given.
func renderFields(fields []zapcore.Field, p palette) string {
	var parts []string
	var input, output string

	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldInput:
			input = val
		case FieldOutput:
			output = val
		case FieldDurationMS:
			parts = append(parts, paint(p.number, val)+"ms")
		case FieldError:
			parts = append(parts, paint(p.err, val))
		default:
			parts = append(parts, paint(p.key, field.Key+"=")+paint(p.value, val))
		}
	}

	switch {
	case input != "" && output != "":
		parts = append([]string{paint(p.value, input) + " -> " + paint(p.value, output)}, parts...)
	case input != "":
		parts = append([]string{paint(p.value, input)}, parts...)
	case output != "":
		parts = append([]string{paint(p.value, output)}, parts...)
	}

	return strings.Join(parts, "  ")
}
