// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package health

import "time"

// Status exposes the boot-time availability of the external collaborators
// for monitoring and operator visibility. All fields are point-in-time
// snapshots safe to serialize to JSON. The snapshot is taken once at
// startup and never mutated afterwards.
type Status struct {
	EmbeddingAvailable bool           `json:"embedding_available"`
	NotesAvailable     bool           `json:"notes_available"`
	ProbedAt           time.Time      `json:"probed_at"`
	EmbeddingError     string         `json:"embedding_error,omitempty"`
	NotesError         string         `json:"notes_error,omitempty"`
	EmbeddingLatency   *time.Duration `json:"embedding_latency_ns,omitempty"`
}
