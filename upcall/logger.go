package upcall

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chord-lang/chord-runtime/task"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// SetLogger installs the diagnostics logger for upcall entry tracing.
// The default is a no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Logger returns the package's logger instance.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}

// logEntry traces an upcall entry with the task identity and the caller's
// return address. Best effort only: nothing may depend on this firing,
// least of all the failure path.
func logEntry(t *task.Task, name string) {
	ce := Logger().Check(zapcore.DebugLevel, "upcall")
	if ce == nil {
		return
	}
	var pc uintptr
	if p, _, _, ok := runtime.Caller(2); ok {
		pc = p
	}
	ce.Write(
		zap.String("fn", name),
		zap.Uint64("task", t.ID()),
		zap.String("task_name", t.Name()),
		zap.Uintptr("retpc", pc),
	)
}
