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

package replication

import (
	"fmt"
	gotime "time"

	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

// Pending holds remote operations that cannot be applied yet because some of
// their causal dependencies are missing.
type Pending struct {
	limit int
	ops   map[string]*pendingOperation

	// refs counts the pending operations that refer to each insertion.
	refs map[string]int
}

type pendingOperation struct {
	op    operations.Operation
	since gotime.Time
}

// NewPending creates a new instance of Pending that holds at most limit
// operations.
func NewPending(limit int) *Pending {
	return &Pending{
		limit: limit,
		ops:   make(map[string]*pendingOperation),
		refs:  make(map[string]int),
	}
}

// Len returns the number of pending operations.
func (p *Pending) Len() int {
	return len(p.ops)
}

// Has returns whether the operation of the given ticket is pending.
func (p *Pending) Has(ticket *time.Ticket) bool {
	_, ok := p.ops[ticket.Key()]
	return ok
}

// Add defers the given operation. Adding an operation that is already
// pending is a no-op.
func (p *Pending) Add(op operations.Operation, now gotime.Time) error {
	key := op.ExecutedAt().Key()
	if _, ok := p.ops[key]; ok {
		return nil
	}
	if p.limit > 0 && len(p.ops) >= p.limit {
		return fmt.Errorf("defer %s: %w", op.ExecutedAt().ToTestString(), ErrTooManyPending)
	}

	p.ops[key] = &pendingOperation{op: op, since: now}
	for _, ref := range op.References() {
		p.refs[ref.Key()]++
	}
	return nil
}

// PopReady removes and returns the pending operations for which ready
// reports true, in ticket order.
func (p *Pending) PopReady(ready func(op operations.Operation) bool) []operations.Operation {
	var popped []operations.Operation
	for key, pending := range p.ops {
		if !ready(pending.op) {
			continue
		}
		popped = append(popped, pending.op)
		p.remove(key, pending.op)
	}

	operations.Sort(popped)
	return popped
}

// Expired returns the operations that have been pending since before the
// given deadline, in ticket order.
func (p *Pending) Expired(deadline gotime.Time) []operations.Operation {
	var expired []operations.Operation
	for _, pending := range p.ops {
		if pending.since.Before(deadline) {
			expired = append(expired, pending.op)
		}
	}

	operations.Sort(expired)
	return expired
}

// Drop removes the given operations from the queue.
func (p *Pending) Drop(ops []operations.Operation) {
	for _, op := range ops {
		key := op.ExecutedAt().Key()
		if pending, ok := p.ops[key]; ok {
			p.remove(key, pending.op)
		}
	}
}

// Missing returns the part of the versions of the pending operations that
// the given local version does not cover.
func (p *Pending) Missing(local time.VersionVector) time.VersionVector {
	missing := time.NewVersionVector()
	for _, pending := range p.ops {
		missing.Max(local.Lack(pending.op.Version()))
	}
	return missing
}

// Pins returns whether a pending operation refers to the insertion of the
// given ticket.
func (p *Pending) Pins(createdAt *time.Ticket) bool {
	return p.refs[createdAt.Key()] > 0
}

// Operations returns the pending operations in ticket order.
func (p *Pending) Operations() []operations.Operation {
	ops := make([]operations.Operation, 0, len(p.ops))
	for _, pending := range p.ops {
		ops = append(ops, pending.op)
	}
	operations.Sort(ops)
	return ops
}

func (p *Pending) remove(key string, op operations.Operation) {
	delete(p.ops, key)
	for _, ref := range op.References() {
		refKey := ref.Key()
		if p.refs[refKey]--; p.refs[refKey] <= 0 {
			delete(p.refs, refKey)
		}
	}
}
