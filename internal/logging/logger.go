package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thornav/decoy/internal/relay"
)

// New builds a structured logger that delivers every entry to the relay
// instead of writing to the terminal directly. The returned handle is
// passed explicitly to each component that emits; there is no global
// logger and no registration step.
func New(r *relay.Relay, level string) *zap.Logger {
	core := &relayCore{
		LevelEnabler: parseLevel(level),
		enc:          zapcore.NewConsoleEncoder(encoderConfig()),
		relay:        r,
	}
	return zap.New(core)
}

// parseLevel maps a config level string onto a zap level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// encoderConfig renders message and fields only; the log pane prefixes
// time and level itself when it draws each record.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// relayCore is a zapcore.Core whose sink is the log relay: each entry is
// encoded to a single line and emitted as one intact record, so entries
// from concurrent request handlers can never interleave mid-message.
type relayCore struct {
	zapcore.LevelEnabler
	enc   zapcore.Encoder
	relay *relay.Relay
}

func (c *relayCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &relayCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		relay:        c.relay,
	}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *relayCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *relayCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	c.relay.Emit(relay.Record{
		Time:    ent.Time,
		Level:   ent.Level,
		Message: strings.TrimRight(buf.String(), "\n"),
	})
	buf.Free()
	return nil
}

func (c *relayCore) Sync() error { return nil }
