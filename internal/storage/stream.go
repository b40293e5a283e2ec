package storage

import "context"

// Stream is a live subscription to a query: it delivers the current result
// immediately and a fresh result after every committed write to the watched
// tables, until cancelled.
//
// Delivery coalesces: the channel buffers a single value and a newer result
// replaces an unread older one, so a slow consumer always sees the latest
// state and intermediate states may be skipped. States are never reordered.
type Stream[T any] struct {
	// C delivers query results. It is closed when the stream is cancelled.
	C <-chan T

	cancel context.CancelFunc
}

// Cancel stops the stream, releases its watcher registration, and closes C.
// Safe to call more than once.
func (s *Stream[T]) Cancel() {
	s.cancel()
}

// Next returns the next value delivered by the stream, or ctx.Err if the
// context is done first. Callers that only need a one-shot read should
// follow Next with Cancel.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	select {
	case v, ok := <-s.C:
		if !ok {
			var zero T
			return zero, context.Canceled
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Observe starts a live subscription: query runs once up front and again
// after every broadcast for the given tables. A query error does not end the
// stream; it is logged and the previous value stands until the next change.
func Observe[T any](d *DB, tables []string, query func(ctx context.Context) (T, error)) *Stream[T] {
	ctx, cancel := context.WithCancel(context.Background())
	signal, release := d.Watch(tables...)

	out := make(chan T, 1)
	s := &Stream[T]{C: out, cancel: cancel}

	go func() {
		defer close(out)
		defer release()

		run := func() {
			v, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					d.log.Error("live query failed", "tables", tables, "error", err)
				}
				return
			}
			push(out, v)
		}

		run()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				run()
			}
		}
	}()

	return s
}

// push delivers v on a single-producer, buffer-1 channel, replacing any
// unread value. The producer goroutine is the only sender, so the drain-then-
// retry loop terminates.
func push[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
