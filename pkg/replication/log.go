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
	"slices"

	"github.com/hashicorp/go-memdb"

	"github.com/yorkie-team/cotext/pkg/document/operations"
	"github.com/yorkie-team/cotext/pkg/document/time"
)

var tblOperations = "operations"

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblOperations: {
			Name: tblOperations,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"seq": {
					Name:    "seq",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "Seq"},
				},
				"actor_id_lamport": {
					Name:   "actor_id_lamport",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ActorID"},
							&memdb.IntFieldIndex{Field: "Lamport"},
						},
					},
				},
			},
		},
	},
}

// OperationInfo is a record of the operation log.
type OperationInfo struct {
	ID        string
	Seq       int64
	ActorID   string
	Lamport   int64
	Operation operations.Operation
}

// Log is the log of applied operations, in the order they were applied
// locally. Lagging replicas catch up from it.
type Log struct {
	db     *memdb.MemDB
	seq    int64
	size   int
	actors map[string]*time.ActorID

	// floor is the highest truncated lamport of each actor.
	floor time.VersionVector
}

// NewLog creates a new instance of Log.
func NewLog() (*Log, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &Log{
		db:     db,
		actors: make(map[string]*time.ActorID),
		floor:  time.NewVersionVector(),
	}, nil
}

// Len returns the number of operations in the log.
func (l *Log) Len() int {
	return l.size
}

// Floor returns the highest truncated lamport of each actor.
func (l *Log) Floor() time.VersionVector {
	return l.floor.DeepCopy()
}

// Append records the given operation. It returns false if the operation is
// already in the log.
func (l *Log) Append(op operations.Operation) (bool, error) {
	ticket := op.ExecutedAt()

	txn := l.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblOperations, "id", ticket.Key())
	if err != nil {
		return false, fmt.Errorf("append %s: %w", ticket.ToTestString(), err)
	}
	if raw != nil {
		return false, nil
	}

	if err := txn.Insert(tblOperations, &OperationInfo{
		ID:        ticket.Key(),
		Seq:       l.seq + 1,
		ActorID:   ticket.ActorIDHex(),
		Lamport:   ticket.Lamport(),
		Operation: op,
	}); err != nil {
		return false, fmt.Errorf("append %s: %w", ticket.ToTestString(), err)
	}
	txn.Commit()

	l.seq++
	l.size++
	l.actors[ticket.ActorIDHex()] = ticket.ActorID()
	return true, nil
}

// OperationsSince returns the operations the given version does not cover,
// in the order they were applied locally, which respects causality. It
// returns ErrSnapshotRequired if some of them were truncated.
func (l *Log) OperationsSince(version time.VersionVector) ([]operations.Operation, error) {
	for _, actor := range l.floor.Keys() {
		if version.VersionOf(actor) < l.floor.VersionOf(actor) {
			return nil, fmt.Errorf(
				"operations of %s since %d: %w",
				actor, version.VersionOf(actor), ErrSnapshotRequired,
			)
		}
	}

	txn := l.db.Txn(false)
	defer txn.Abort()

	var infos []*OperationInfo
	for hex, actor := range l.actors {
		iterator, err := txn.LowerBound(
			tblOperations,
			"actor_id_lamport",
			hex,
			version.VersionOf(actor)+1,
		)
		if err != nil {
			return nil, fmt.Errorf("find operations of %s: %w", hex, err)
		}

		for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
			info := raw.(*OperationInfo)
			if info.ActorID != hex {
				break
			}
			infos = append(infos, info)
		}
	}

	slices.SortFunc(infos, func(a, b *OperationInfo) int {
		return int(a.Seq - b.Seq)
	})

	ops := make([]operations.Operation, len(infos))
	for i, info := range infos {
		ops[i] = info.Operation
	}
	return ops, nil
}

// Truncate removes the operations the given stable version covers and returns
// how many were removed. Replicas below the truncated range must be brought
// up to date with a snapshot. Truncating an empty log only raises the floor,
// e.g. for a log that starts from a snapshot.
func (l *Log) Truncate(stable time.VersionVector) (int, error) {
	txn := l.db.Txn(true)
	defer txn.Abort()

	var truncated []*OperationInfo
	for _, actor := range stable.Keys() {
		lamport := stable.VersionOf(actor)
		if lamport <= l.floor.VersionOf(actor) {
			continue
		}

		hex := actor.String()
		iterator, err := txn.LowerBound(tblOperations, "actor_id_lamport", hex, int64(0))
		if err != nil {
			return 0, fmt.Errorf("truncate operations of %s: %w", hex, err)
		}
		for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
			info := raw.(*OperationInfo)
			if info.ActorID != hex || info.Lamport > lamport {
				break
			}
			truncated = append(truncated, info)
		}
		l.floor.Set(actor, lamport)
	}

	for _, info := range truncated {
		if err := txn.Delete(tblOperations, info); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", info.ID, err)
		}
	}
	txn.Commit()

	l.size -= len(truncated)
	return len(truncated), nil
}
