// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// Recorder logs slash command executions and, when enabled, stores them.
type Recorder struct {
	logger  *zap.Logger
	store   *Store
	enabled bool
}

// NewRecorder creates a recorder. store may be nil.
func NewRecorder(logger *zap.Logger, store *Store, enabled bool) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger.Named("telemetry"),
		store:   store,
		enabled: enabled,
	}
}

// Enabled reports whether events are persisted.
func (r *Recorder) Enabled() bool {
	return r.enabled && r.store != nil
}

// LogSlashCommand records one execution. The event is returned even when
// persisting it fails.
func (r *Recorder) LogSlashCommand(ctx context.Context, result ExecutionResult, extensionID string) (SlashCommandEvent, error) {
	ev := MakeSlashCommandEvent(result, extensionID)

	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("command", ev.Command),
		zap.String("status", string(ev.Status)),
		zap.String("execution_status", string(result.Status)),
	}
	if ev.Subcommand != "" {
		fields = append(fields, zap.String("subcommand", ev.Subcommand))
	}
	if ev.ExtensionID != "" {
		fields = append(fields, zap.String("extension_id", ev.ExtensionID))
	}
	if result.Error != "" {
		fields = append(fields, zap.String("error", result.Error))
	}
	r.logger.Info("slash command", fields...)

	if !r.Enabled() {
		return ev, nil
	}
	if err := r.store.Insert(ctx, ev); err != nil {
		r.logger.Warn("failed to store event", zap.String("event_id", ev.ID), zap.Error(err))
		return ev, err
	}
	return ev, nil
}
