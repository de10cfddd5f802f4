package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one console color theme
type palette struct {
	fg       string
	time     string
	id       string
	number   string
	good     string
	bad      string
	accent   []string // rotated per component name
	warn     string
	warnBg   string
	errColor string
	errBg    string
}

var themes = map[string]palette{
	// Everforest Dark: natural forest greens
	"everforest": {
		fg:       "\x1b[38;5;223m",
		time:     "\x1b[38;5;107m",
		id:       "\x1b[38;5;109m",
		number:   "\x1b[38;5;108m",
		good:     "\x1b[38;5;108m",
		bad:      "\x1b[38;5;167m",
		accent:   []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
		warn:     "\x1b[38;5;179m",
		warnBg:   "\x1b[48;5;58m",
		errColor: "\x1b[38;5;167m",
		errBg:    "\x1b[48;5;52m",
	},
	// Gruvbox Dark: warm, muted
	"gruvbox": {
		fg:       "\x1b[38;5;223m",
		time:     "\x1b[38;5;108m",
		id:       "\x1b[38;5;109m",
		number:   "\x1b[38;5;175m",
		good:     "\x1b[38;5;142m",
		bad:      "\x1b[38;5;167m",
		accent:   []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
		warn:     "\x1b[38;5;214m",
		warnBg:   "\x1b[48;5;58m",
		errColor: "\x1b[38;5;167m",
		errBg:    "\x1b[48;5;88m",
	},
}

// Current active theme
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

func colorComponent(name string) string {
	// Hash for consistent color per component
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	accent := colors().accent
	return accent[hash%len(accent)]
}

// minimalEncoder implements a calm, compact console encoder
// Format: "13:04:35  p.runner  Contract processed  CW2291 PROCESSED 4210ms"
type minimalEncoder struct {
	zapcore.Encoder // base encoder for field serialization
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := buffer.NewPool().Get()

	final.AppendString(c.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: omitted for INFO
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(c.fg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if values := extractFieldValues(fields); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	c := colors()
	switch level {
	case zapcore.DebugLevel:
		return c.id + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + c.errBg + c.errColor + "ERROR" + colorReset
	default:
		return colorBold + c.errBg + c.errColor + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: pulse.runner -> p.runner
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// getFieldValue renders any zap field value through a map encoder, so every
// field type (floats, durations, arrays, objects) has a textual form
func getFieldValue(field zapcore.Field) string {
	if field.Type == zapcore.SkipType {
		return ""
	}
	enc := zapcore.NewMapObjectEncoder()
	field.AddTo(enc)
	v, ok := enc.Fields[field.Key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// extractFieldValues pulls just the values of the fields worth showing on a
// console line, with theme colors
// Input:  {"contract_id": "CW1", "status": "PROCESSED", "duration_ms": 4210}
// Output: "CW1 PROCESSED 4210ms"
func extractFieldValues(fields []zapcore.Field) string {
	c := colors()
	var values []string

	for _, field := range fields {
		val := getFieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldContractID, FieldRunID:
			values = append(values, c.id+val+colorReset)
		case FieldStatus:
			color := c.good
			if val != "PROCESSED" && val != "NO_FILES" {
				color = c.bad
			}
			values = append(values, color+val+colorReset)
		case FieldDurationMS:
			values = append(values, c.number+val+colorReset+"ms")
		case FieldCount, FieldQuantity:
			values = append(values, c.number+val+colorReset)
		case FieldIndex:
			values = append(values, c.number+"#"+val+colorReset)
		case FieldPath, FieldFile:
			values = append(values, c.fg+val+colorReset)
		case FieldError, FieldReason:
			values = append(values, c.bad+val+colorReset)
		case FieldSymbol:
			values = append(values, c.good+val+colorReset)
		default:
			// unknown keys are never dropped
			values = append(values, c.fg+field.Key+"="+val+colorReset)
		}
	}

	return strings.Join(values, " ")
}
