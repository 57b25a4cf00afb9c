package llm

import (
	"context"
	"iter"
)

// Fragment is one incremental piece of reply text.
type Fragment struct {
	Text string
}

// Streamer performs one exchange with a model service. The returned sequence
// is lazy and finite; it issues the request when first ranged over and must
// be consumed once, in order. A non-nil error ends the sequence.
//
// Streamer is the only dependency the tutor session has on a provider SDK, so
// it is easy to fake in tests.
type Streamer interface {
	Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error]
}
