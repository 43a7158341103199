package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pipecraft/internal/ir"
)

// AddLog appends an entry to the event log. entityID may be empty.
func (e *Engine) AddLog(ctx context.Context, message string, level ir.Level, entityID string) (*ir.LogEntry, error) {
	if !level.Valid() {
		return nil, opError(ErrCodeInvalid, "add log", string(level), fmt.Errorf("unknown level: %w", ErrInvalidName))
	}

	entry, err := e.store.Logs().Create(ctx, ir.LogEntry{
		Message:  message,
		Level:    level,
		EntityID: entityID,
	})
	if err != nil {
		return nil, storeError("add log", "", err)
	}

	slog.Debug("log appended", "level", level, "entity", entityID, "message", message)
	e.bus.publish(Event{Kind: EventLogAppended, ID: entry.ID, EntityID: entityID, Log: &entry})
	return &entry, nil
}

// Logs returns the most recent log entries, newest first. limit < 1 means
// DefaultLogLimit.
func (e *Engine) Logs(ctx context.Context, limit int) ([]ir.LogEntry, error) {
	if limit < 1 {
		limit = DefaultLogLimit
	}
	logs, err := e.store.Logs().List(ctx, "-created_date", limit)
	if err != nil {
		return nil, storeError("logs", "", err)
	}
	return logs, nil
}

// logf appends a formatted entry. A failed log write fails the command.
func (e *Engine) logf(ctx context.Context, level ir.Level, entityID, format string, args ...any) error {
	_, err := e.AddLog(ctx, fmt.Sprintf(format, args...), level, entityID)
	return err
}
