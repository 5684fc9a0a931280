package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/tenant"
)

type recordPtr[T any] interface {
	Record
	*T
}

// Coordinator orchestrates read-through/write-through synchronization for
// one named collection: LocalStore holds durable truth, CloudStore is the
// opportunistically reconciled replica. Every connectivity failure degrades
// to local state; only tenant resolution failures propagate.
type Coordinator[T any, PT recordPtr[T]] struct {
	collection string
	local      LocalStore
	cloud      CloudStore
	paths      *tenant.PathResolver
	conn       Connectivity
	outbox     *Outbox
	log        *zap.Logger
}

// NewCoordinator creates a coordinator for one collection
func NewCoordinator[T any, PT recordPtr[T]](
	collection string,
	local LocalStore,
	cloud CloudStore,
	paths *tenant.PathResolver,
	conn Connectivity,
	outbox *Outbox,
	log *zap.Logger,
) *Coordinator[T, PT] {
	return &Coordinator[T, PT]{
		collection: collection,
		local:      local,
		cloud:      cloud,
		paths:      paths,
		conn:       conn,
		outbox:     outbox,
		log:        log,
	}
}

// Collection returns the collection name this coordinator serves
func (c *Coordinator[T, PT]) Collection() string {
	return c.collection
}

// GetAll returns every record in the collection, sorted by name
// (case-insensitive ascending). When online it first reconciles the local
// collection against the cloud replica; remote failures are logged and the
// call still succeeds on local-only data.
func (c *Coordinator[T, PT]) GetAll(ctx context.Context, id *tenant.Identity) ([]PT, error) {
	path, err := c.paths.Resolve(id, c.collection)
	if err != nil {
		return nil, err
	}

	if c.conn.Online() {
		remote, err := c.cloud.ListDocuments(ctx, path)
		if err != nil {
			c.log.Warn("remote fetch failed, serving local state",
				zap.String("collection", c.collection), zap.Error(err))
		} else if err := c.mergeRemote(ctx, remote); err != nil {
			c.log.Warn("remote merge failed, serving local state",
				zap.String("collection", c.collection), zap.Error(err))
		}
	}

	docs, err := c.local.GetAll(ctx, c.collection)
	if err != nil {
		return nil, errors.NewInternalError("failed to read local collection", err)
	}

	items := make([]PT, 0, len(docs))
	for _, doc := range docs {
		rec, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].SortName()) < strings.ToLower(items[j].SortName())
	})
	return items, nil
}

// Save persists a record locally (always) and pushes it to the cloud when
// online. A record without an id gets a generated one. The record is
// returned exactly as last written locally: SYNCED after a confirmed push,
// otherwise PENDING with a queued operation for the next drain.
func (c *Coordinator[T, PT]) Save(ctx context.Context, id *tenant.Identity, item PT) (PT, error) {
	path, err := c.paths.Resolve(id, c.collection)
	if err != nil {
		return nil, err
	}

	if item.RecordID() == "" {
		item.SetRecordID(GenerateID(c.collection))
	}
	item.SetStatus(StatusPending)
	item.SetVersion(time.Now().UTC())

	// The local write must complete before any cloud attempt.
	if err := c.putLocal(ctx, item); err != nil {
		return nil, err
	}

	if !c.conn.Online() {
		c.enqueue(ctx, OpPut, item.RecordID())
		return item, nil
	}

	data, err := toDocumentData(item)
	if err != nil {
		return nil, errors.NewInternalError("failed to marshal record", err)
	}
	if err := c.cloud.SetDocumentMerge(ctx, path, item.RecordID(), data); err != nil {
		c.log.Warn("remote push failed, record left pending",
			zap.String("collection", c.collection),
			zap.String("recordId", item.RecordID()),
			zap.Error(err))
		c.enqueue(ctx, OpPut, item.RecordID())
		return item, nil
	}

	item.SetStatus(StatusSynced)
	if err := c.putLocal(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a record locally first (immediate and irrevocable for the
// caller), then best-effort remotely. A failed or offline remote delete is
// queued for the next drain.
func (c *Coordinator[T, PT]) Delete(ctx context.Context, id *tenant.Identity, recordID string) error {
	path, err := c.paths.Resolve(id, c.collection)
	if err != nil {
		return err
	}

	if err := c.local.Delete(ctx, c.collection, recordID); err != nil {
		return errors.NewInternalError("failed to delete local record", err)
	}

	if !c.conn.Online() {
		c.enqueue(ctx, OpDelete, recordID)
		return nil
	}
	if err := c.cloud.DeleteDocument(ctx, path, recordID); err != nil {
		c.log.Warn("remote delete failed",
			zap.String("collection", c.collection),
			zap.String("recordId", recordID),
			zap.Error(err))
		c.enqueue(ctx, OpDelete, recordID)
	}
	return nil
}

// mergeRemote reconciles remote documents into the local collection.
// Policy is last-writer-wins per record: a remote copy replaces the local
// one unless the local copy is PENDING and carries a newer version, in
// which case the local edit survives until its queued push lands.
// Local-only records absent remotely are kept untouched.
func (c *Coordinator[T, PT]) mergeRemote(ctx context.Context, remote []Doc) error {
	locals, err := c.local.GetAll(ctx, c.collection)
	if err != nil {
		return err
	}

	type localState struct {
		status  Status
		version time.Time
	}
	byID := make(map[string]localState, len(locals))
	for _, doc := range locals {
		rec, err := c.decode(doc)
		if err != nil {
			// Unreadable local copies lose to the remote replica.
			continue
		}
		byID[doc.ID] = localState{status: rec.Status(), version: rec.Version()}
	}

	return c.local.Transaction(ctx, c.collection, func(tx Batch) error {
		for _, rd := range remote {
			rec, err := c.decode(rd)
			if err != nil {
				c.log.Warn("skipping malformed remote document",
					zap.String("collection", c.collection),
					zap.String("recordId", rd.ID))
				continue
			}
			if local, ok := byID[rd.ID]; ok {
				if local.status == StatusPending && local.version.After(rec.Version()) {
					continue
				}
			}
			rec.SetStatus(StatusSynced)
			body, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := tx.Put(Doc{ID: rec.RecordID(), UpdatedAt: rec.Version(), Body: body}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Coordinator[T, PT]) putLocal(ctx context.Context, item PT) error {
	body, err := json.Marshal(item)
	if err != nil {
		return errors.NewInternalError("failed to marshal record", err)
	}
	doc := Doc{ID: item.RecordID(), UpdatedAt: item.Version(), Body: body}
	if err := c.local.Put(ctx, c.collection, doc); err != nil {
		return errors.NewInternalError("failed to write local record", err)
	}
	return nil
}

func (c *Coordinator[T, PT]) decode(doc Doc) (PT, error) {
	rec := PT(new(T))
	if err := json.Unmarshal(doc.Body, rec); err != nil {
		return nil, errors.NewInternalError(
			fmt.Sprintf("malformed %s document %s", c.collection, doc.ID), err)
	}
	if rec.RecordID() == "" {
		rec.SetRecordID(doc.ID)
	}
	return rec, nil
}

// enqueue queues an operation for the next connectivity window. Queue
// failures are logged, never surfaced: the local write already succeeded
// and the caller's result must not degrade for sync reasons.
func (c *Coordinator[T, PT]) enqueue(ctx context.Context, kind OpKind, recordID string) {
	if c.outbox == nil {
		return
	}
	if err := c.outbox.Enqueue(ctx, c.collection, recordID, kind); err != nil {
		c.log.Warn("failed to queue pending operation",
			zap.String("collection", c.collection),
			zap.String("recordId", recordID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// toDocumentData converts a record into the field map pushed to the cloud store
func toDocumentData(item any) (map[string]interface{}, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}
