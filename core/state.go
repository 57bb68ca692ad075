// Copyright 2026 Lectern Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// DocumentState is the closed set of processing states a document moves
// through. Transitions are monotonic within an attempt:
//
//	Queued -> Processing -> Extracting -> Vectorizing -> Indexed
//
// Any non-terminal state may transition to Failed. A failed document is
// re-enterable via Queued when the queue schedules a retry, and a run
// abandoned mid-flight (worker crash, expired lease) is re-enterable via
// Processing when the job is redelivered; Indexed and a permanently
// exhausted Failed are the only true terminals.
type DocumentState int

const (
	// StateQueued is the initial state on job creation.
	StateQueued DocumentState = iota + 1
	// StateProcessing means a worker claimed the job and started the run.
	StateProcessing
	// StateExtracting means text extraction completed and chunking is under way.
	StateExtracting
	// StateVectorizing means chunks are being embedded and persisted.
	StateVectorizing
	// StateIndexed is terminal success; the document is queryable.
	StateIndexed
	// StateFailed records a failed attempt. It is terminal once the job
	// is dead-lettered, otherwise the document re-enters StateQueued.
	StateFailed
)

var stateNames = map[DocumentState]string{
	StateQueued:      "QUEUED",
	StateProcessing:  "PROCESSING",
	StateExtracting:  "EXTRACTING",
	StateVectorizing: "VECTORIZING",
	StateIndexed:     "INDEXED",
	StateFailed:      "FAILED",
}

func (s DocumentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DocumentState(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s DocumentState) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Terminal reports whether s is a state no worker will move the document
// out of on its own. StateFailed is terminal per attempt; the queue may
// still re-enter it via StateQueued until the job is dead-lettered.
func (s DocumentState) Terminal() bool {
	return s == StateIndexed || s == StateFailed
}

// CanTransition reports whether moving from s to next respects the state
// machine. Failed is reachable from every non-terminal state, Queued is
// re-enterable from Failed (retry), Processing is re-enterable from any
// mid-run state (redelivery after an expired lease), and forward
// progress is single-step.
func (s DocumentState) CanTransition(next DocumentState) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if next == StateFailed {
		return s != StateIndexed
	}
	if next == StateProcessing {
		// An expired lease leaves the document stranded mid-run; the
		// redelivered attempt starts over from Processing.
		switch s {
		case StateQueued, StateProcessing, StateExtracting, StateVectorizing:
			return true
		default:
			return false
		}
	}
	switch s {
	case StateProcessing:
		return next == StateExtracting
	case StateExtracting:
		return next == StateVectorizing
	case StateVectorizing:
		return next == StateIndexed
	case StateFailed:
		return next == StateQueued
	default:
		return false
	}
}

// Transition mutates the document state after validating the move.
// Progress is clamped to be non-decreasing within a run; it resets only
// when a fresh attempt begins (re-entering Processing).
func (d *Document) Transition(next DocumentState, progress int) error {
	if !d.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.State, next)
	}
	if next == StateProcessing {
		// Fresh attempt: progress starts over.
		d.Progress = 0
	}
	if progress > d.Progress {
		d.Progress = progress
	}
	d.State = next
	return nil
}
