package messaging

import (
	"context"
	"errors"
)

// Fanout delivers every event to each publisher in order. A failing
// publisher does not stop delivery to the rest.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event *Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() {
	for _, p := range f {
		p.Close()
	}
}
