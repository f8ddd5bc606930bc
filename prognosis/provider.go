// Package prognosis wraps price and generation providers and samples them
// onto a grid. Design note: the provider abstraction is generic over the
// sampled quantity (see spec.md §9) rather than two bespoke interfaces —
// the core only ever needs "a pure function from an interval to a scalar".
package prognosis

import (
	"context"
	"time"
)

// Provider is a pure function from a half-open wall-clock interval to a
// sampled quantity of type T (price, energy, ...). Implementations may
// fail; a provider is called at most once per grid step per solve (spec.md
// §6).
type Provider[T any] interface {
	Sample(ctx context.Context, start, end time.Time) (T, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc[T any] func(ctx context.Context, start, end time.Time) (T, error)

// Sample implements Provider.
func (f ProviderFunc[T]) Sample(ctx context.Context, start, end time.Time) (T, error) {
	return f(ctx, start, end)
}

// Constant returns a Provider that ignores the interval and always returns v.
// Useful for zero-generation defaults and in tests.
func Constant[T any](v T) Provider[T] {
	return ProviderFunc[T](func(_ context.Context, _, _ time.Time) (T, error) {
		return v, nil
	})
}
