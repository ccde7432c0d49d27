package chalkdoc

import (
	"context"
	"iter"
	"sync"
)

func serial(ctx context.Context, j *job, seq iter.Seq[Candidate], collect func(evaluation) error) error {
	for c := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := collect(j.evaluate(c)); err != nil {
			return err
		}
	}
	return nil
}

// parallel fans candidates out to g.workers goroutines. Results arrive in
// any order; the caller restores candidate order by index.
func (g *Generator) parallel(parent context.Context, j *job, seq iter.Seq[Candidate], collect func(evaluation) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	candidates := make(chan Candidate, g.workers)
	results := make(chan evaluation, g.workers)

	var wg sync.WaitGroup
	for i := 0; i < g.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range candidates {
				select {
				case results <- j.evaluate(c):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(candidates)
		for c := range seq {
			select {
			case candidates <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for ev := range results {
		if firstErr != nil {
			continue
		}
		if err := collect(ev); err != nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return parent.Err()
}
