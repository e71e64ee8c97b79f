package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes command, import and cache events to a logger at debug
// level.
type LogHooks struct {
	logger *log.Logger
}

var (
	_ CommandHooks = (*LogHooks)(nil)
	_ ImportHooks  = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
)

// NewLogHooks returns hooks logging to logger, or to the default logger
// when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnExecute(_ context.Context, command string, elements int) {
	h.logger.Debug("executed", "command", command, "elements", elements)
}

func (h *LogHooks) OnUndo(context.Context) { h.logger.Debug("undo") }

func (h *LogHooks) OnRedo(context.Context) { h.logger.Debug("redo") }

func (h *LogHooks) OnAbort(_ context.Context, command string, err error) {
	h.logger.Warn("transaction aborted", "command", command, "err", err)
}

func (h *LogHooks) OnImportStart(_ context.Context, diagram string) {
	h.logger.Debug("import started", "diagram", diagram)
}

func (h *LogHooks) OnImportComplete(_ context.Context, diagram string, elements, warnings int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("import failed", "diagram", diagram, "err", err)
		return
	}
	h.logger.Debug("import done", "diagram", diagram, "elements", elements, "warnings", warnings, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
