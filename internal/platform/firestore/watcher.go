package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// ChangeHandler receives the full decoded result set each time the store
// pushes a change. Snapshots arrive in query order; no diffing is performed.
type ChangeHandler[T any] func(docs []Document[T])

// ErrorHandler receives the terminal error that stopped a watch.
type ErrorHandler func(err error)

// StopFunc cancels an active watch. Calling it more than once is safe.
type StopFunc func()

// Watch opens a snapshot listener on the collection and invokes onChange with
// the freshly decoded documents for every pushed change, starting with the
// current contents. The listener runs until stop is called, the context is
// cancelled, or the stream fails, in which case onError is invoked once.
func (c *Collection[T]) Watch(ctx context.Context, build QueryBuilder, onChange ChangeHandler[T], onError ErrorHandler) (StopFunc, error) {
	if onChange == nil {
		return nil, errors.New("firestore: change handler is required")
	}

	coll, err := c.collectionRef(ctx)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	snapshots := query.Snapshots(watchCtx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				cancel()
				if errors.Is(err, context.Canceled) || errors.Is(watchCtx.Err(), context.Canceled) {
					return
				}
				if onError != nil {
					onError(WrapError(c.op("watch"), err))
				}
				return
			}

			docs, err := c.decodeQuerySnapshot(watchCtx, snap)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(docs)
		}
	}()

	return func() { cancel() }, nil
}

func (c *Collection[T]) decodeQuerySnapshot(ctx context.Context, snap *firestore.QuerySnapshot) ([]Document[T], error) {
	iter := snap.Documents
	defer iter.Stop()

	var docs []Document[T]
	for {
		docSnap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(c.op("watch"), err)
		}
		decoded, err := c.decodeDocument(ctx, docSnap)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", docSnap.Ref.ID, err)
		}
		docs = append(docs, decoded)
	}
	return docs, nil
}
