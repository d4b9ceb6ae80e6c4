package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/mochi-browser/taskbridge/core"
)

// BridgeLogger adapts a zap.Logger to core.Logger.
type BridgeLogger struct {
	l *zap.Logger
}

var _ core.Logger = (*BridgeLogger)(nil)

// NewBridgeLogger wraps l. A nil l discards everything.
func NewBridgeLogger(l *zap.Logger) *BridgeLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &BridgeLogger{l: l.WithOptions(zap.AddCallerSkip(1))}
}

func (b *BridgeLogger) Debug(msg string, fields ...core.Field) { b.l.Debug(msg, zapFields(fields)...) }
func (b *BridgeLogger) Info(msg string, fields ...core.Field)  { b.l.Info(msg, zapFields(fields)...) }
func (b *BridgeLogger) Warn(msg string, fields ...core.Field)  { b.l.Warn(msg, zapFields(fields)...) }
func (b *BridgeLogger) Error(msg string, fields ...core.Field) { b.l.Error(msg, zapFields(fields)...) }

func zapFields(fields []core.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// PanicLogger reports work panics at Error level with the captured stack.
// The panic still reaches the task's callback as a Failure.
type PanicLogger struct {
	l *zap.Logger
}

var _ core.PanicHandler = (*PanicLogger)(nil)

func NewPanicLogger(l *zap.Logger) *PanicLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &PanicLogger{l: l}
}

func (p *PanicLogger) HandlePanic(ctx context.Context, bridgeName, taskName string, panicInfo any, stackTrace []byte) {
	fields := []zap.Field{
		zap.String("bridge", bridgeName),
		zap.String("task", taskName),
		zap.Any("panic", panicInfo),
		zap.ByteString("stack", stackTrace),
	}
	if id, ok := core.CurrentTaskID(ctx); ok {
		fields = append(fields, zap.Stringer("task_id", id))
	}
	p.l.Error("task panicked", fields...)
}

// RejectionLogger reports spawns the bridge refused at Warn level.
type RejectionLogger struct {
	l *zap.Logger
}

var _ core.RejectedTaskHandler = (*RejectionLogger)(nil)

func NewRejectionLogger(l *zap.Logger) *RejectionLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &RejectionLogger{l: l}
}

func (r *RejectionLogger) HandleRejectedTask(bridgeName, taskName string, reason error) {
	r.l.Warn("task rejected",
		zap.String("bridge", bridgeName),
		zap.String("task", taskName),
		zap.Error(reason),
	)
}
