package messaging

import (
	"context"

	"github.com/wixxidevelop/blue/pkg/circuit"
)

// Guarded skips a failing publisher while its breaker is open, so an
// unreachable sink does not add its timeout to every request
type Guarded struct {
	Publisher
	breaker *circuit.Breaker
}

// Guard wraps p with breaker
func Guard(p Publisher, breaker *circuit.Breaker) *Guarded {
	return &Guarded{Publisher: p, breaker: breaker}
}

func (g *Guarded) Publish(ctx context.Context, event *Event) error {
	return g.breaker.Execute(func() error {
		return g.Publisher.Publish(ctx, event)
	})
}
