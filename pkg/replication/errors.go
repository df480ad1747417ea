/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package replication tracks what every replica has applied, defers
// operations whose causal dependencies are missing and keeps the log of
// applied operations that lagging replicas catch up from.
package replication

import (
	"fmt"
	"strings"

	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
)

var (
	// ErrCausalGap is returned when deferred operations wait for dependencies
	// longer than the retry window. The caller should request a resync.
	ErrCausalGap = errors.FailedPrecond("causal gap").WithCode("ErrCausalGap")

	// ErrTooManyPending is returned when the deferred operation queue is full.
	ErrTooManyPending = errors.ResourceExhausted("too many pending operations").WithCode("ErrTooManyPending")

	// ErrSnapshotRequired is returned when the operations a replica asks for
	// were already truncated from the log.
	ErrSnapshotRequired = errors.FailedPrecond("snapshot required").WithCode("ErrSnapshotRequired")
)

// CausalGapError describes operations that could not be applied because
// their dependencies never arrived.
type CausalGapError struct {
	// Missing is the version the local replica lacks.
	Missing time.VersionVector

	// Operations are the tickets of the stalled operations.
	Operations []*time.Ticket
}

// Error returns the error message.
func (e *CausalGapError) Error() string {
	tickets := make([]string, len(e.Operations))
	for i, ticket := range e.Operations {
		tickets[i] = ticket.ToTestString()
	}
	return fmt.Sprintf(
		"%s: %d operations [%s] missing %s",
		ErrCausalGap.Error(),
		len(e.Operations),
		strings.Join(tickets, ","),
		e.Missing.Marshal(),
	)
}

// Unwrap returns ErrCausalGap.
func (e *CausalGapError) Unwrap() error {
	return ErrCausalGap
}
