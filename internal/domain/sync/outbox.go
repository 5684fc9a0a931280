package sync

import (
	"context"
	"encoding/json"
	"sort"
	stdsync "sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/tenant"
)

// OutboxCollection is the LocalStore collection holding queued operations.
const OutboxCollection = "_outbox"

// OpKind identifies a queued remote write.
type OpKind string

const (
	// OpPut pushes the record's current local body
	OpPut OpKind = "put"
	// OpDelete removes the remote document
	OpDelete OpKind = "delete"
)

// Operation is one queued remote write for a record left PENDING locally.
type Operation struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	RecordID   string    `json:"recordId"`
	Kind       OpKind    `json:"kind"`
	QueuedAt   time.Time `json:"queuedAt"`
}

// Outbox is the durable queue of remote writes awaiting a connectivity
// window. Convergence happens only through Drain, which the wiring hooks
// to Monitor.OnOnline; nothing retries implicitly.
type Outbox struct {
	mu    stdsync.Mutex
	local LocalStore
	cloud CloudStore
	paths *tenant.PathResolver
	log   *zap.Logger
}

// NewOutbox creates an outbox backed by the given stores
func NewOutbox(local LocalStore, cloud CloudStore, paths *tenant.PathResolver, log *zap.Logger) *Outbox {
	return &Outbox{
		local: local,
		cloud: cloud,
		paths: paths,
		log:   log,
	}
}

// Enqueue records a pending operation, replacing any previously queued
// operation for the same record. A delete queued after a put supersedes it.
func (o *Outbox) Enqueue(ctx context.Context, collection, recordID string, kind OpKind) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ops, err := o.load(ctx)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.Collection == collection && op.RecordID == recordID {
			if err := o.local.Delete(ctx, OutboxCollection, op.ID); err != nil {
				return err
			}
		}
	}

	op := Operation{
		ID:         ulid.Make().String(),
		Collection: collection,
		RecordID:   recordID,
		Kind:       kind,
		QueuedAt:   time.Now().UTC(),
	}
	body, err := json.Marshal(op)
	if err != nil {
		return err
	}
	return o.local.Put(ctx, OutboxCollection, Doc{ID: op.ID, UpdatedAt: op.QueuedAt, Body: body})
}

// Pending returns the queued operations in drain order
func (o *Outbox) Pending(ctx context.Context) ([]Operation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.load(ctx)
}

// Drain pushes every queued operation to the cloud store. Operations whose
// push still fails stay queued for the next connectivity window; tenant
// resolution failures abort the drain.
func (o *Outbox) Drain(ctx context.Context, id *tenant.Identity) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ops, err := o.load(ctx)
	if err != nil {
		return err
	}
	for _, op := range ops {
		path, err := o.paths.Resolve(id, op.Collection)
		if err != nil {
			return err
		}

		var done bool
		switch op.Kind {
		case OpDelete:
			if err := o.cloud.DeleteDocument(ctx, path, op.RecordID); err != nil {
				o.log.Warn("queued delete push failed",
					zap.String("collection", op.Collection),
					zap.String("recordId", op.RecordID),
					zap.Error(err))
				continue
			}
			done = true
		case OpPut:
			done, err = o.pushRecord(ctx, path, op)
			if err != nil {
				return err
			}
		}
		if !done {
			continue
		}
		if err := o.local.Delete(ctx, OutboxCollection, op.ID); err != nil {
			return err
		}
	}
	return nil
}

// pushRecord pushes the record's current local body and flips the local
// copy to SYNCED. Returns false when the push should be retried later.
func (o *Outbox) pushRecord(ctx context.Context, path string, op Operation) (bool, error) {
	doc, err := o.local.Get(ctx, op.Collection, op.RecordID)
	if err != nil {
		// Record deleted since it was queued; nothing left to push.
		o.log.Warn("queued record no longer exists",
			zap.String("collection", op.Collection),
			zap.String("recordId", op.RecordID))
		return true, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(doc.Body, &data); err != nil {
		o.log.Warn("dropping malformed queued record",
			zap.String("collection", op.Collection),
			zap.String("recordId", op.RecordID),
			zap.Error(err))
		return true, nil
	}

	if err := o.cloud.SetDocumentMerge(ctx, path, op.RecordID, data); err != nil {
		o.log.Warn("queued push failed",
			zap.String("collection", op.Collection),
			zap.String("recordId", op.RecordID),
			zap.Error(err))
		return false, nil
	}

	data["syncStatus"] = string(StatusSynced)
	body, err := json.Marshal(data)
	if err != nil {
		return false, err
	}
	return true, o.local.Put(ctx, op.Collection, Doc{ID: doc.ID, UpdatedAt: doc.UpdatedAt, Body: body})
}

func (o *Outbox) load(ctx context.Context) ([]Operation, error) {
	docs, err := o.local.GetAll(ctx, OutboxCollection)
	if err != nil {
		return nil, err
	}
	ops := make([]Operation, 0, len(docs))
	for _, doc := range docs {
		var op Operation
		if err := json.Unmarshal(doc.Body, &op); err != nil {
			o.log.Warn("skipping malformed outbox entry", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].QueuedAt.Equal(ops[j].QueuedAt) {
			return ops[i].ID < ops[j].ID
		}
		return ops[i].QueuedAt.Before(ops[j].QueuedAt)
	})
	return ops, nil
}
