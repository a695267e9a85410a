package knowledge

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrDataSource marks any failure to read the portfolio collections.
var ErrDataSource = errors.New("knowledge data source error")

// FetchError reports which collection failed to load.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrDataSource }

// Reader fetches every collection from a Source concurrently.
type Reader struct {
	source Source
}

func NewReader(source Source) *Reader {
	return &Reader{source: source}
}

// FetchAll issues all collection reads at once and waits for every one of
// them. Any single failure fails the whole fetch; partial records are
// never returned.
func (r *Reader) FetchAll(ctx context.Context) (Records, error) {
	if r == nil || r.source == nil {
		return Records{}, &FetchError{Collection: "source", Err: errors.New("no source configured")}
	}

	var out Records
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := r.source.Profile(gctx)
		if err != nil {
			return &FetchError{Collection: "profile", Err: err}
		}
		out.Profile = v
		return nil
	})
	g.Go(func() error {
		v, err := r.source.Skills(gctx)
		if err != nil {
			return &FetchError{Collection: "skills", Err: err}
		}
		out.Skills = v
		return nil
	})
	g.Go(func() error {
		v, err := r.source.Experience(gctx)
		if err != nil {
			return &FetchError{Collection: "experience", Err: err}
		}
		out.Experience = v
		return nil
	})
	g.Go(func() error {
		v, err := r.source.Education(gctx)
		if err != nil {
			return &FetchError{Collection: "education", Err: err}
		}
		out.Education = v
		return nil
	})
	g.Go(func() error {
		v, err := r.source.Certificates(gctx)
		if err != nil {
			return &FetchError{Collection: "certificates", Err: err}
		}
		out.Certificates = v
		return nil
	})
	g.Go(func() error {
		v, err := r.source.Projects(gctx)
		if err != nil {
			return &FetchError{Collection: "projects", Err: err}
		}
		out.Projects = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return Records{}, err
	}
	return Normalize(out), nil
}
