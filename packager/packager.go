// Package packager builds complete data files for the payload formats this
// module ships: string pools and lookup sets.
package packager

import (
	"context"

	"github.com/INLOpen/datafile/newdata"
)

// Payload writes a format-specific payload into an open data file.
type Payload interface {
	WritePayload(w *newdata.Writer) error
}

// Package creates the file described by opts, streams p into it and
// finishes it. It returns the payload length.
func Package(ctx context.Context, opts newdata.Options, p Payload) (int64, error) {
	w, err := newdata.Create(ctx, opts)
	if err != nil {
		return 0, err
	}
	if err := p.WritePayload(w); err != nil {
		// Finish still closes the sink and releases the lock.
		_, _ = w.Finish(ctx)
		return 0, err
	}
	return w.Finish(ctx)
}
