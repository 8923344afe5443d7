// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// ErrConflict marks a transaction that lost a race with a concurrent writer.
// Backends wrap it when a compare-and-set finds the row changed underneath.
var ErrConflict = errors.New("txn: concurrent modification")

const (
	labelTransient     = "TransientTransactionError"
	labelUnknownCommit = "UnknownTransactionCommitResult"

	maxCommitAttempts = 3
	baseBackoff       = 5 * time.Millisecond
	maxBackoff        = 250 * time.Millisecond
)

// IsNotSupported reports whether err means the MongoDB deployment cannot
// run multi-document transactions (standalone server, unsupported session).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, IllegalOperation (legacy), OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hasTx := strings.Contains(msg, "transaction")
	hasSession := strings.Contains(msg, "session")
	switch {
	case hasTx && strings.Contains(msg, "replica set"):
		return true
	case hasTx && hasSession:
		return true
	case hasSession && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

// IsRetryable reports whether the whole transaction may be run again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	return hasLabel(err, labelTransient)
}

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel(label)
	}
	return false
}

// Retry runs fn until it succeeds, fails with a non-retryable error, or
// attempts are used up. Exhaustion returns an apperr Conflict; a context
// that ends first returns an apperr Unavailable. Between attempts it sleeps
// with jittered exponential backoff.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return timedOut(err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isContextErr(err) {
			return timedOut(err)
		}
		if !IsRetryable(err) {
			return err
		}
		last = err

		if i == attempts-1 {
			break
		}
		t := time.NewTimer(backoff(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return timedOut(ctx.Err())
		case <-t.C:
		}
	}
	return apperr.Conflict(fmt.Sprintf("gave up after %d attempts", attempts), last)
}

func backoff(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d/2 + rand.N(d/2+1)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func timedOut(err error) error {
	return apperr.Unavailable("operation did not complete in time", err)
}

// Mongo runs fn inside a MongoDB multi-document transaction with snapshot
// reads and majority writes. Commits with an unknown result are retried a
// few times; any other failure aborts the transaction.
//
// Deployments without transaction support yield apperr Unavailable. Write
// conflicts come back wrapping ErrConflict so Retry can run fn again.
func Mongo(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return classify(err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(opts); err != nil {
			return classify(err)
		}

		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(context.WithoutCancel(sc))
			return classify(err)
		}

		var commitErr error
		for i := 0; i < maxCommitAttempts; i++ {
			commitErr = sess.CommitTransaction(sc)
			if commitErr == nil || !hasLabel(commitErr, labelUnknownCommit) {
				break
			}
		}
		if commitErr != nil {
			return classify(commitErr)
		}
		return nil
	})
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict):
		return err
	case IsRetryable(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case IsNotSupported(err):
		return apperr.Unavailable("database does not support transactions", err)
	default:
		return err
	}
}
