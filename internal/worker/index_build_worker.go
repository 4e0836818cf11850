package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/platform/rabbitmq"
)

// JobRunner executes one index build job.
type JobRunner interface {
	RunJob(ctx context.Context, job model.IndexJob) error
}

// IndexBuildWorker consumes index build jobs one at a time. Builds are never run
// concurrently, so a single consumer with prefetch 1 is enough.
type IndexBuildWorker struct {
	conn      *amqp.Connection
	runner    JobRunner
	queueName string
	log       logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexBuildWorker(conn *amqp.Connection, runner JobRunner, queueName string, log logger.Logger) *IndexBuildWorker {
	if log == nil {
		log = logger.Discard()
	}
	return &IndexBuildWorker{
		conn:      conn,
		runner:    runner,
		queueName: queueName,
		log:       log.With("component", "index-worker"),
	}
}

func (w *IndexBuildWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareJobQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Info("index worker started", "queue", w.queueName)
	return nil
}

// Handle decodes and runs one job. Failed jobs are logged and dropped; they are not retried.
func (w *IndexBuildWorker) Handle(ctx context.Context, body []byte) error {
	var job model.IndexJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log.Error("decode index job failed", "err", err)
		return fmt.Errorf("decode index job failed: %w", err)
	}

	w.log.Info("index job received", "id", job.ID, "document", job.DocumentPath)
	ctx = logger.ContextWithLogger(ctx, w.log.With("job", job.ID))
	if err := w.runner.RunJob(ctx, job); err != nil {
		w.log.Error("index job failed", "id", job.ID, "err", err)
		return err
	}
	w.log.Info("index job done", "id", job.ID)
	return nil
}

func (w *IndexBuildWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
