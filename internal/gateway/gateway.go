// Package gateway wraps externally-triggered mutating calls so duplicate
// or rapid-fire invocation (expected from an automated caller) collapses
// into one underlying write, without the caller supplying an idempotency
// key.
package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

// Fingerprint identifies "the same logical request": operation name, actor
// identity, and the canonicalized argument set. encoding/json marshals map
// keys in sorted order with no whitespace, which is the canonical form.
func Fingerprint(op, actor string, args any) string {
	serialized, err := json.Marshal(args)
	if err != nil {
		serialized = []byte(fmt.Sprintf("%v", args))
	}
	digest := sha256.Sum256(serialized)
	return op + ":" + actor + ":" + hex.EncodeToString(digest[:])
}

type Gateway struct {
	log   *logger.Logger
	cache *ResultCache
	gate  *DebounceGate
}

func New(log *logger.Logger, cache *ResultCache, gate *DebounceGate) *Gateway {
	return &Gateway{
		log:   log.With("component", "MutationGateway"),
		cache: cache,
		gate:  gate,
	}
}

// Do applies the idempotency policy around fn:
//
//  1. a fingerprint already in the result cache returns the memoized
//     result without waiting or re-executing;
//  2. otherwise the call registers in the debounce table and waits; if a
//     newer duplicate arrived meanwhile this call aborts as debounced;
//  3. the surviving call executes fn; success is cached, failure is
//     returned uncached so a retry actually re-executes.
func (gw *Gateway) Do(ctx context.Context, op, actor string, args any, fn func(ctx context.Context) Result) Result {
	fingerprint := Fingerprint(op, actor, args)
	if cached, ok := gw.cache.Get(fingerprint); ok {
		gw.log.Debug("Returning cached result", "op", op, "fingerprint", fingerprint)
		return cached
	}
	if !gw.gate.Run(fingerprint) {
		gw.log.Debug("Debounced duplicate call", "op", op, "fingerprint", fingerprint)
		return Debounced()
	}
	result := fn(ctx)
	if _, failed := result.Err(); failed || result.IsDebounced() {
		return result
	}
	gw.cache.Set(fingerprint, result)
	return result
}
