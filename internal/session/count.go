package session

import (
	"context"
	"strings"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// Scanner is an optional capability of a kv.Store that can enumerate keys
// by prefix. MemoryStore and RedisStore both implement it; ActiveCount
// degrades to NotImplemented against a Store that does not.
type Scanner interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ActiveCount returns the number of session/{user} records currently
// present (lazily; expired-but-not-yet-evicted records are excluded by
// probing each key's TTL through Validate).
func (e *Engine) ActiveCount(ctx context.Context) (int, error) {
	scanner, ok := e.store.(Scanner)
	if !ok {
		return 0, apperrors.New(apperrors.KindNotImplemented, "active session count requires a Scanner-capable store")
	}

	keys, err := scanner.Keys(ctx, "session/")
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindStorage, err, "scan session keys")
	}

	count := 0
	for _, key := range keys {
		active, err := e.Validate(ctx, strings.TrimPrefix(key, "session/"))
		if err != nil {
			return 0, err
		}
		if active {
			count++
		}
	}
	return count, nil
}
