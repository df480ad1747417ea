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

// Package document provides the Document, the owner of a replicated text.
// Every access to a Document goes through its lock, so local edits, remote
// operations and compaction are applied one at a time.
package document

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	gotime "time"
	"unicode/utf8"

	"github.com/yorkie-team/cotext/api/converter"
	"github.com/yorkie-team/cotext/pkg/document/crdt"
	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/errors"
	"github.com/yorkie-team/cotext/pkg/logging"
	"github.com/yorkie-team/cotext/pkg/profiling/prometheus"
	"github.com/yorkie-team/cotext/pkg/replication"
	"github.com/yorkie-team/cotext/pkg/rope"
)

// Stats is a summary of the state of a document.
type Stats struct {
	Len        int
	Lines      int
	Fragments  int
	Tombstones int
	Collected  int
	Pending    int
	Outbox     int
	LogSize    int
	Peers      int
	Version    time.VersionVector
}

// Document is a replicated text owned by a single replica.
type Document struct {
	mu sync.Mutex

	actorID *time.ActorID
	config  *Config
	logger  logging.Logger
	metrics *prometheus.Metrics
	now     func() gotime.Time

	gcGracePeriod gotime.Duration
	retryWindow   gotime.Duration

	clock   *time.Clock
	text    *crdt.Text
	tracker *replication.Tracker
	pending *replication.Pending
	log     *replication.Log

	// outbox holds the local operations that were not flushed yet.
	outbox []operations.Operation
}

// New creates a new empty document owned by the given replica.
func New(actorID *time.ActorID, opts ...Option) (*Document, error) {
	d, err := newDocument(actorID, opts)
	if err != nil {
		return nil, err
	}

	d.text = crdt.NewText(d.config.MaxLeafBytes)
	d.text.SetNow(d.now)
	d.tracker = replication.NewTracker(actorID, nil)
	return d, nil
}

// Load creates a document from an encoded snapshot. A malformed snapshot is
// reported as is; no partial document is returned.
func Load(actorID *time.ActorID, snapshot []byte, opts ...Option) (*Document, error) {
	d, err := newDocument(actorID, opts)
	if err != nil {
		return nil, err
	}

	decoded, err := converter.BytesToSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	d.text, err = crdt.NewTextFromSnapshot(decoded, d.config.MaxLeafBytes)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	d.text.SetNow(d.now)
	d.tracker = replication.NewTracker(actorID, decoded.Version.DeepCopy())
	d.clock.Observe(decoded.Version.MaxLamport())

	// operations before the snapshot are not in the log
	if _, err := d.log.Truncate(decoded.Version); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	d.logger.Infof("loaded %d bytes at %s", d.text.Len(), decoded.Version.Marshal())
	return d, nil
}

func newDocument(actorID *time.ActorID, opts []Option) (*Document, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		o.config = NewConfig()
	}
	if o.logger == nil {
		o.logger = logging.New("document", logging.NewField("actor", actorID.String()))
	}
	if o.now == nil {
		o.now = gotime.Now
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	gcGracePeriod, err := o.config.ParseGCGracePeriod()
	if err != nil {
		return nil, err
	}
	retryWindow, err := o.config.ParsePendingRetryWindow()
	if err != nil {
		return nil, err
	}

	log, err := replication.NewLog()
	if err != nil {
		return nil, err
	}

	return &Document{
		actorID:       actorID,
		config:        o.config,
		logger:        o.logger,
		metrics:       o.metrics,
		now:           o.now,
		gcGracePeriod: gcGracePeriod,
		retryWindow:   retryWindow,
		clock:         time.NewClock(actorID),
		pending:       replication.NewPending(o.config.MaxPendingOperations),
		log:           log,
	}, nil
}

// ActorID returns the ID of the replica that owns this document.
func (d *Document) ActorID() *time.ActorID {
	return d.actorID
}

// ApplyLocalEdit replaces the text between from and to with the given text
// and returns the operations it created. The operations are also queued for
// FlushOperations.
func (d *Document) ApplyLocalEdit(from, to int, text string) ([]operations.Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("edit [%d, %d): %w", from, to, rope.ErrInvalidUTF8)
	}
	if _, _, err := d.text.InsertOrigins(from); err != nil {
		return nil, fmt.Errorf("edit [%d, %d): %w", from, to, err)
	}

	var ops []operations.Operation
	if from != to {
		spans, err := d.text.DeleteSpans(from, to)
		if err != nil {
			return nil, fmt.Errorf("edit [%d, %d): %w", from, to, err)
		}

		del := operations.NewDelete(spans, d.tracker.Local(), d.clock.NextTicket())
		if err := d.applyLocal(del); err != nil {
			return nil, err
		}
		ops = append(ops, del)
	}

	if text != "" {
		origin, rightOrigin, err := d.text.InsertOrigins(from)
		if err != nil {
			return nil, fmt.Errorf("edit [%d, %d): %w", from, to, err)
		}

		insert := operations.NewInsert(origin, rightOrigin, text, d.tracker.Local(), d.clock.NextTicket())
		if err := d.applyLocal(insert); err != nil {
			return nil, err
		}
		ops = append(ops, insert)
	}

	return ops, nil
}

func (d *Document) applyLocal(op operations.Operation) error {
	if err := op.Execute(d.text); err != nil {
		return fmt.Errorf("execute %s: %w", op.ExecutedAt().ToTestString(), err)
	}
	d.tracker.Applied(op.ExecutedAt())
	if _, err := d.log.Append(op); err != nil {
		return err
	}

	d.outbox = append(d.outbox, op)
	d.metrics.AddOperationsApplied(prometheus.OriginLocal, 1)
	return nil
}

// ApplyPayload decodes an encoded batch of operations and applies it. A
// malformed payload is rejected before anything is applied.
func (d *Document) ApplyPayload(payload []byte) error {
	ops, err := converter.BytesToOperations(payload)
	if err != nil {
		return err
	}
	d.metrics.AddPayloadBytes(prometheus.DirectionInbound, len(payload))

	return d.ApplyRemote(ops)
}

// ApplyRemote applies operations received from peers. Operations that were
// already applied are skipped, operations whose dependencies are missing are
// deferred, and the rest are applied in ticket order.
//
// The returned error joins what could not be applied: operations referring
// to collected text (ErrCollectedReference), a full pending queue
// (ErrTooManyPending) and operations deferred longer than the retry window
// (*replication.CausalGapError).
func (d *Document) ApplyRemote(ops []operations.Operation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	duplicates, deferred := 0, 0
	now := d.now()
	for _, op := range ops {
		ticket := op.ExecutedAt()
		d.clock.Observe(ticket.Lamport())
		d.tracker.ObservePeer(ticket, op.Version())

		if d.tracker.Includes(ticket) || d.pending.Has(ticket) {
			duplicates++
			continue
		}
		if err := d.pending.Add(op, now); err != nil {
			errs = append(errs, err)
			continue
		}
		deferred++
	}
	if duplicates > 0 {
		d.logger.Debugf("skipped %d duplicated operations", duplicates)
		d.metrics.AddOperationsDuplicated(duplicates)
	}

	applied, err := d.applyReady()
	if err != nil {
		errs = append(errs, err)
	}
	if deferred -= applied; deferred > 0 {
		d.logger.Debugf("deferred %d operations, %d pending", deferred, d.pending.Len())
		d.metrics.AddOperationsDeferred(deferred)
	}

	if err := d.expirePending(); err != nil {
		errs = append(errs, err)
	}

	if d.config.CompactionThreshold > 0 && d.text.Summary().Tombstones >= d.config.CompactionThreshold {
		if _, err := d.compact(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// applyReady applies pending operations until none is ready and returns how
// many were taken from the queue.
func (d *Document) applyReady() (int, error) {
	var errs []error
	taken := 0
	for {
		ready := d.pending.PopReady(func(op operations.Operation) bool {
			return d.tracker.Ready(op.Version())
		})
		if len(ready) == 0 {
			break
		}
		taken += len(ready)

		applied := 0
		for _, op := range ready {
			ticket := op.ExecutedAt()
			if err := op.Validate(d.text); err != nil {
				if errors.Is(err, crdt.ErrCollectedReference) {
					// the operation can never be applied; mark it so that
					// operations depending on it are not held back
					d.tracker.Applied(ticket)
					d.logger.Errorf("data loss: %s: %v", ticket.ToTestString(), err)
					d.metrics.AddDataLoss(1)
				} else {
					d.logger.Errorf("drop %s: %v", ticket.ToTestString(), err)
				}
				errs = append(errs, applyError(ticket, err))
				continue
			}

			if err := op.Execute(d.text); err != nil {
				errs = append(errs, applyError(ticket, err))
				continue
			}
			d.tracker.Applied(ticket)
			if _, err := d.log.Append(op); err != nil {
				errs = append(errs, err)
			}
			applied++
		}
		d.metrics.AddOperationsApplied(prometheus.OriginRemote, applied)
	}

	return taken, errors.Join(errs...)
}

// applyError attaches the ticket of the failed operation to err.
func applyError(ticket *time.Ticket, err error) error {
	return errors.WithMetadata(
		fmt.Errorf("apply %s: %w", ticket.ToTestString(), err),
		map[string]string{
			"actor":   ticket.ActorIDHex(),
			"lamport": strconv.FormatInt(ticket.Lamport(), 10),
		},
	)
}

// ExpirePending reports operations that waited for their dependencies longer
// than the retry window and drops them. The caller should resync with a peer
// by sending VersionVector and applying the OperationsSince it returns.
func (d *Document) ExpirePending() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.expirePending()
}

func (d *Document) expirePending() error {
	expired := d.pending.Expired(d.now().Add(-d.retryWindow))
	if len(expired) == 0 {
		return nil
	}

	gap := &replication.CausalGapError{
		Missing:    d.pending.Missing(d.tracker.Local()),
		Operations: make([]*time.Ticket, len(expired)),
	}
	for i, op := range expired {
		gap.Operations[i] = op.ExecutedAt()
	}
	d.pending.Drop(expired)

	d.logger.Warnf("%v", gap)
	d.metrics.AddCausalGaps(len(expired))
	return gap
}

// FlushOperations returns the local operations created since the last flush
// as an encoded payload, or nil if there are none.
func (d *Document) FlushOperations() ([]byte, error) {
	d.mu.Lock()
	ops := d.outbox
	d.outbox = nil
	d.mu.Unlock()

	if len(ops) == 0 {
		return nil, nil
	}

	// operations are immutable, so they are encoded outside of the lock
	payload, err := converter.OperationsToBytes(ops)
	if err != nil {
		return nil, err
	}
	d.metrics.AddPayloadBytes(prometheus.DirectionOutbound, len(payload))
	return payload, nil
}

// OperationsSince returns the encoded operations the given version does not
// cover, for a peer to catch up. It returns replication.ErrSnapshotRequired
// if some of them were truncated; the peer should Load a Snapshot instead.
func (d *Document) OperationsSince(version time.VersionVector) ([]byte, error) {
	d.mu.Lock()
	ops, err := d.log.OperationsSince(version)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return converter.OperationsToBytes(ops)
}

// UpdatePeerVersion records the version a peer reported. Compaction waits
// for every known peer.
func (d *Document) UpdatePeerVersion(actorID *time.ActorID, version time.VersionVector) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tracker.UpdatePeer(actorID, version)
}

// RemovePeer forgets a peer that left the session.
func (d *Document) RemovePeer(actorID *time.ActorID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tracker.RemovePeer(actorID)
}

// VersionVector returns the version this document has applied.
func (d *Document) VersionVector() time.VersionVector {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tracker.Local()
}

// ReadText returns the text between the given byte offsets.
func (d *Document) ReadText(from, to int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.Slice(from, to)
}

// String returns the whole text.
func (d *Document) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.String()
}

// Len returns the length of the text in bytes.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.Len()
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.LineCount()
}

// OffsetToPoint converts a byte offset to a row and column.
func (d *Document) OffsetToPoint(offset int) (rope.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.OffsetToPoint(offset)
}

// PointToOffset converts a row and column to a byte offset.
func (d *Document) PointToOffset(point rope.Point) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.PointToOffset(point)
}

// CreateAnchor returns an anchor at the given offset.
func (d *Document) CreateAnchor(offset int, bias crdt.Bias) (*crdt.Anchor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.CreateAnchor(offset, bias)
}

// ResolveAnchor returns the current offset of the given anchor.
func (d *Document) ResolveAnchor(anchor *crdt.Anchor) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text.ResolveAnchor(anchor)
}

// Compact removes the tombstones that no replica can refer to anymore and
// truncates the operation log up to the same version. Nothing is removed
// while operations known to come from peers are still missing.
func (d *Document) Compact() (crdt.CompactionReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.compact()
}

func (d *Document) compact() (crdt.CompactionReport, error) {
	if !d.tracker.CaughtUp() {
		d.logger.Debugf("skip compaction: waiting for peers")
		return crdt.CompactionReport{Remaining: d.text.Summary().Tombstones}, nil
	}

	start := gotime.Now()
	stable := d.tracker.StableVersion()
	policy := crdt.CompactionPolicy{
		Stable: stable,
		Pinned: func(f *crdt.Fragment) bool {
			return d.pending.Pins(f.ID().CreatedAt())
		},
	}
	if d.gcGracePeriod > 0 {
		policy.RemovedBefore = d.now().Add(-d.gcGracePeriod)
	}

	report := d.text.Compact(policy)
	truncated, err := d.log.Truncate(stable)
	if err != nil {
		return report, fmt.Errorf("compact: %w", err)
	}

	d.metrics.ObserveCompaction(
		gotime.Since(start).Seconds(),
		report.Collected,
		report.CollectedBytes,
		report.Conflicts,
	)
	d.metrics.AddOpLogTruncated(truncated)
	if report.Collected > 0 || truncated > 0 {
		d.logger.Infof(
			"compacted %d tombstones (%d bytes), %d conflicts, %d remaining, %d operations truncated",
			report.Collected, report.CollectedBytes, report.Conflicts, report.Remaining, truncated,
		)
	}
	return report, nil
}

// Snapshot returns the encoded state of this document. Loading it
// reproduces the text and its merge behavior.
func (d *Document) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return converter.SnapshotToBytes(d.text.Snapshot(d.tracker.Local()))
}

// Stats returns a summary of the state of this document.
func (d *Document) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	summary := d.text.Summary()
	return Stats{
		Len:        d.text.Len(),
		Lines:      d.text.LineCount(),
		Fragments:  summary.Fragments,
		Tombstones: summary.Tombstones,
		Collected:  d.text.CollectedLen(),
		Pending:    d.pending.Len(),
		Outbox:     len(d.outbox),
		LogSize:    d.log.Len(),
		Peers:      len(d.tracker.Peers()),
		Version:    d.tracker.Local(),
	}
}

// Run applies the payloads received on ingress until the context is done or
// ingress is closed. Payloads that fail are logged; deferred operations are
// checked against the retry window periodically.
func (d *Document) Run(ctx context.Context, ingress <-chan []byte) error {
	interval := d.retryWindow / 2
	if interval <= 0 {
		interval = gotime.Second
	}
	ticker := gotime.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ingress:
			if !ok {
				return nil
			}
			if err := d.ApplyPayload(payload); err != nil {
				d.logger.Warnf("apply payload: %v", err)
			}
		case <-ticker.C:
			if err := d.ExpirePending(); err != nil {
				d.logger.Warnf("expire pending: %v", err)
			}
		}
	}
}
