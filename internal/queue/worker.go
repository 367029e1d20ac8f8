package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// dequeueTimeout is how long a worker blocks waiting for a job before
// checking for shutdown
const dequeueTimeout = 5 * time.Second

// Worker pulls jobs off the queue and dispatches them to registered handlers
type Worker struct {
	queue       *RedisQueue
	concurrency int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker pool over a queue
func NewWorker(queue *RedisQueue, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       queue,
		concurrency: concurrency,
	}
}

// Start launches the worker goroutines
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	log.Printf("Job worker started with %d goroutines", w.concurrency)
}

// Stop signals the workers to finish and waits for them
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	log.Println("Job worker stopped")
}

// run is the per-goroutine dequeue loop
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobTypes := w.queue.JobTypes()
		if len(jobTypes) == 0 {
			time.Sleep(dequeueTimeout)
			continue
		}

		job, err := w.queue.Dequeue(ctx, jobTypes, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Failed to dequeue job: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, *job)
	}
}

// process dispatches a job to its handler, re-enqueueing on failure until
// the retry budget runs out
func (w *Worker) process(ctx context.Context, job Job) {
	handler, ok := w.queue.Handler(job.Type)
	if !ok {
		log.Printf("No handler registered for job type %s, dropping job %s", job.Type, job.ID)
		return
	}

	if err := handler(ctx, job); err != nil {
		log.Printf("Job %s (%s) failed: %v", job.ID, job.Type, err)

		if job.RetryCount < job.MaxRetries {
			if retryErr := w.queue.Retry(ctx, job); retryErr != nil {
				log.Printf("Failed to re-enqueue job %s: %v", job.ID, retryErr)
			}
		} else {
			log.Printf("Job %s (%s) exhausted retries, giving up", job.ID, job.Type)
		}
	}
}
