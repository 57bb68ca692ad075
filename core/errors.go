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

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument indicates a document failed domain validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a chunk failed domain validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidJob indicates a job failed domain validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidTransition indicates a document state transition that the
	// state machine does not permit.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrEmptyContent indicates empty text where content is required.
	ErrEmptyContent = errors.New("empty content")

	// ErrDimensionMismatch indicates an embedding vector whose length does
	// not match the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ErrorKind classifies a processing failure. The kind decides the retry
// policy: input and transient errors go through the queue's backoff path
// up to the attempt limit, configuration errors are never retried, and
// exhausted marks the terminal state after the limit is reached.
type ErrorKind int

const (
	// KindInput covers unreadable or corrupt source files.
	KindInput ErrorKind = iota + 1
	// KindTransient covers provider timeouts, index write failures and
	// other conditions a retry can plausibly fix.
	KindTransient
	// KindConfig covers misconfiguration such as a dimension mismatch.
	// Retrying cannot fix a misconfiguration.
	KindConfig
	// KindExhausted marks a job that reached the attempt limit.
	KindExhausted
)

var kindNames = map[ErrorKind]string{
	KindInput:     "input",
	KindTransient: "transient",
	KindConfig:    "config",
	KindExhausted: "exhausted",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ProcessingError is the structured failure payload recorded on a
// document and handed to the queue. It replaces free-text status blobs so
// status polling can distinguish failure classes.
type ProcessingError struct {
	Kind    ErrorKind
	Message string
	Attempt int
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %s (attempt %d)", e.Kind, e.Message, e.Attempt)
}

// Retryable reports whether the queue may schedule another attempt for
// this failure. Configuration errors and exhaustion are final.
func (e *ProcessingError) Retryable() bool {
	return e.Kind == KindInput || e.Kind == KindTransient
}

// InputErr builds an input-class processing error.
func InputErr(format string, args ...any) *ProcessingError {
	return &ProcessingError{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// TransientErr builds a transient-class processing error.
func TransientErr(format string, args ...any) *ProcessingError {
	return &ProcessingError{Kind: KindTransient, Message: fmt.Sprintf(format, args...)}
}

// ConfigErr builds a configuration-class processing error.
func ConfigErr(format string, args ...any) *ProcessingError {
	return &ProcessingError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// AsProcessingError extracts a ProcessingError from an error chain.
// Unclassified errors are wrapped as transient so the queue's uniform
// retry policy applies to them.
func AsProcessingError(err error) *ProcessingError {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProcessingError{Kind: KindTransient, Message: err.Error()}
}
