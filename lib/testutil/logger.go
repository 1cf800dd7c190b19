// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Records holds log records captured by [CaptureLogger]. Safe for
// concurrent use: node runs log from many goroutines.
type Records struct {
	mutex   sync.Mutex
	records []slog.Record
}

// CaptureLogger returns a logger at Debug level that stores every
// record, and the store to inspect afterwards.
func CaptureLogger() (*slog.Logger, *Records) {
	records := &Records{}
	return slog.New(&captureHandler{records: records}), records
}

// Count returns the number of records at exactly level.
func (r *Records) Count(level slog.Level) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	count := 0
	for _, record := range r.records {
		if record.Level == level {
			count++
		}
	}
	return count
}

// Messages returns the message of every record in arrival order.
func (r *Records) Messages() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	messages := make([]string, 0, len(r.records))
	for _, record := range r.records {
		messages = append(messages, record.Message)
	}
	return messages
}

// WithAttr returns the records at level that carry attribute key with
// the given string value, including attributes added through With.
func (r *Records) WithAttr(level slog.Level, key, value string) []slog.Record {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var matched []slog.Record
	for _, record := range r.records {
		if record.Level != level {
			continue
		}
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == key && attr.Value.String() == value {
				matched = append(matched, record)
				return false
			}
			return true
		})
	}
	return matched
}

type captureHandler struct {
	records *Records
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	// Fold With() attributes into the stored record so WithAttr sees
	// the node scoping the way a real handler would print it.
	stored := record.Clone()
	stored.AddAttrs(h.attrs...)
	h.records.mutex.Lock()
	h.records.records = append(h.records.records, stored)
	h.records.mutex.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &captureHandler{records: h.records, attrs: combined}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }
