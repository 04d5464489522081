package writer

import (
	"context"
	"sync"

	"reelpress/internal/asset"
)

type digestJob func(ctx context.Context, progress func(float64)) error

// calculateDigests hashes every reel's assets plus any referenced assets
// still lacking a hash, on a pool of at most w.threads workers. Reported
// progress is the minimum fractional completion across the workers, so it
// never runs ahead of the slowest asset. Cancelling ctx abandons the
// remaining work.
func (w *Writer) calculateDigests(ctx context.Context, progress func(float64)) error {
	var jobs []digestJob
	for _, r := range w.reels {
		jobs = append(jobs, r.Digests)
	}
	jobs = append(jobs, w.digestReferenced)

	workers := w.threads
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var (
		progressMu sync.Mutex
		perWorker  = make(map[int]float64, workers)
	)
	// Workers that have not reported yet count as zero, so the minimum
	// never runs ahead of an idle worker.
	for i := 0; i < workers; i++ {
		perWorker[i] = 0
	}
	report := func(worker int, p float64) {
		if progress == nil {
			return
		}
		progressMu.Lock()
		perWorker[worker] = p
		minP := p
		for _, v := range perWorker {
			if v < minP {
				minP = v
			}
		}
		progressMu.Unlock()
		progress(minP)
	}

	jobCh := make(chan digestJob, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		worker := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				if err := job(ctx, func(p float64) { report(worker, p) }); err != nil {
					errCh <- err
					return
				}
			}
			// A worker with no work left must not hold the minimum down.
			report(worker, 1)
		}()
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// digestReferenced fills in hashes for referenced assets that arrived
// without one. Their paths are read as-is; referenced assets live wherever
// the prior build left them.
func (w *Writer) digestReferenced(ctx context.Context, progress func(float64)) error {
	type ref struct {
		reel int
		idx  int
	}
	var pending []ref
	for reelIdx, assets := range w.referenced {
		for i := range assets {
			if assets[i].Hash == "" {
				pending = append(pending, ref{reel: reelIdx, idx: i})
			}
		}
	}
	if len(pending) == 0 {
		if progress != nil {
			progress(1)
		}
		return nil
	}

	for n, p := range pending {
		base := float64(n) / float64(len(pending))
		span := 1 / float64(len(pending))
		a := &w.referenced[p.reel][p.idx]
		hash, err := asset.HashFile(ctx, a.Path, func(frac float64) {
			if progress != nil {
				progress(base + span*frac)
			}
		})
		if err != nil {
			return err
		}
		a.Hash = hash
	}
	if progress != nil {
		progress(1)
	}
	return nil
}
