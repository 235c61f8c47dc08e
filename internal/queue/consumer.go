// Package queue drives the message-queue adapter: pull a report-batch
// message, run it through the analyzer, POST the result, and ack/reject
// according to the outcome. The consumer shape (context-driven loop,
// WaitGroup shutdown, atomic counters) follows the project's Kafka
// consumer; the transport is AMQP (github.com/rabbitmq/amqp091-go) because
// the ingestion contract is RabbitMQ, not Kafka.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tix-net/condenser/internal/analyzer"
	"github.com/tix-net/condenser/internal/metrics"
	"github.com/tix-net/condenser/internal/report"
)

// Delivery is the subset of amqp.Delivery the consumer depends on, so tests
// can supply a fake.
type Delivery struct {
	Body   []byte
	Ack    func(multiple bool) error
	Nack   func(multiple, requeue bool) error
	Reject func(requeue bool) error
}

// Deliveries is the subset of amqp.Channel.Consume's return type the
// consumer depends on.
type Deliveries <-chan Delivery

// Publisher posts an analysis result to the downstream API. Implemented by
// internal/apiclient.Client; a fake satisfies it in tests.
type Publisher interface {
	Publish(ctx context.Context, userID, installationID int64, ip string, result analyzer.AnalysisResult) error
}

// Connector opens a channel and begins consuming from the configured queue,
// returning a Deliveries channel. Implemented against *amqp.Connection in
// production, faked in tests.
type Connector interface {
	Connect(ctx context.Context) (Deliveries, func() error, error)
}

// Consumer drives the receive -> parse -> analyze -> publish -> ack/reject
// loop for one queue.
type Consumer struct {
	connector Connector
	publisher Publisher
	logger    zerolog.Logger
	maxRetry  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed uint64
	acked     uint64
	rejected  uint64
	requeued  uint64
}

// NewConsumer builds a Consumer. maxRetry bounds the reconnect backoff.
func NewConsumer(connector Connector, publisher Publisher, logger zerolog.Logger, maxRetry time.Duration) *Consumer {
	return &Consumer{
		connector: connector,
		publisher: publisher,
		logger:    logger,
		maxRetry:  maxRetry,
	}
}

// Start launches the consume loop in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.consumeLoop()
}

// Stop cancels the loop and waits for it to drain.
func (c *Consumer) Stop() {
	c.cancel()
	c.wg.Wait()
}

// Metrics returns the running counters.
func (c *Consumer) Metrics() (processed, acked, rejected, requeued uint64) {
	return atomic.LoadUint64(&c.processed),
		atomic.LoadUint64(&c.acked),
		atomic.LoadUint64(&c.rejected),
		atomic.LoadUint64(&c.requeued)
}

func (c *Consumer) consumeLoop() {
	defer c.wg.Done()

	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = c.maxRetry

	for {
		if c.ctx.Err() != nil {
			return
		}

		deliveries, closeFn, err := c.connector.Connect(c.ctx)
		if err != nil {
			wait := boff.NextBackOff()
			if wait == backoff.Stop {
				c.logger.Fatal().Err(err).Msg("queue: exhausted reconnect backoff")
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("queue: connect failed, retrying")
			select {
			case <-time.After(wait):
				continue
			case <-c.ctx.Done():
				return
			}
		}
		boff.Reset()

		c.drain(deliveries)
		if closeFn != nil {
			_ = closeFn()
		}
	}
}

func (c *Consumer) drain(deliveries Deliveries) {
	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(delivery)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) handle(d Delivery) {
	atomic.AddUint64(&c.processed, 1)
	metrics.RecordMessageReceived()

	reports, err := decodeReports(d.Body)
	if err != nil {
		c.logger.Error().Err(err).Msg("queue: malformed report batch")
		c.dropNoRequeue(d)
		return
	}

	ip, observations, err := report.CollectObservations(reports)
	if err != nil || len(observations) == 0 {
		c.logger.Warn().Str("ip", ip).Msg("queue: no observations in batch")
		c.dropNoRequeue(d)
		return
	}

	result, err := analyzer.Analyze(observations)
	if err != nil {
		if tagErr, ok := err.(*analyzer.Error); ok {
			switch tagErr.Tag {
			case analyzer.TransientEgressFailure, analyzer.ConfigurationFailure:
				c.rejectWithRequeue(d)
				return
			}
		}
		c.logger.Error().Err(err).Str("ip", ip).Int("observations", len(observations)).Msg("queue: analysis failed")
		c.dropNoRequeue(d)
		return
	}

	userID, installationID := int64(0), int64(0)
	if len(reports) > 0 {
		userID, installationID = reports[0].UserID, reports[0].InstallationID
	}

	ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()
	if err := c.publisher.Publish(ctx, userID, installationID, ip, result); err != nil {
		c.logger.Warn().Err(err).Str("ip", ip).Msg("queue: publish failed, requeuing")
		metrics.RecordPublishOutcome("transient")
		c.rejectWithRequeue(d)
		return
	}

	metrics.RecordPublishOutcome("success")
	observeResult(result)

	atomic.AddUint64(&c.acked, 1)
	metrics.RecordMessageAcked()
	if d.Ack != nil {
		_ = d.Ack(false)
	}
}

// decodeReports validates each element of the batch's raw JSON array against
// the report schema before unmarshaling it into a Report, so a schema
// failure on any single report poisons the whole batch rather than
// surfacing as an obscure field-level decode error.
func decodeReports(body []byte) ([]report.Report, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("queue: decoding report batch: %w", err)
	}

	reports := make([]report.Report, 0, len(raw))
	for i, r := range raw {
		if err := report.ValidateSchema(r); err != nil {
			return nil, fmt.Errorf("queue: report %d: %w", i, err)
		}
		var parsed report.Report
		if err := json.Unmarshal(r, &parsed); err != nil {
			return nil, fmt.Errorf("queue: report %d: %w", i, err)
		}
		reports = append(reports, parsed)
	}
	return reports, nil
}

func observeResult(result analyzer.AnalysisResult) {
	metrics.ObserveUsage("upstream", result.Upstream.Usage)
	metrics.ObserveUsage("downstream", result.Downstream.Usage)
	metrics.ObserveQuality("upstream", result.Upstream.Quality)
	metrics.ObserveQuality("downstream", result.Downstream.Quality)
	metrics.ObserveHurst("upstream", "rs", result.Upstream.Hurst.RS)
	metrics.ObserveHurst("upstream", "wavelet", result.Upstream.Hurst.Wavelet)
	metrics.ObserveHurst("downstream", "rs", result.Downstream.Hurst.RS)
	metrics.ObserveHurst("downstream", "wavelet", result.Downstream.Hurst.Wavelet)
}

func (c *Consumer) dropNoRequeue(d Delivery) {
	atomic.AddUint64(&c.rejected, 1)
	metrics.RecordMessageRejected(false, "malformed_or_degenerate")
	if d.Reject != nil {
		_ = d.Reject(false)
	}
}

func (c *Consumer) rejectWithRequeue(d Delivery) {
	atomic.AddUint64(&c.requeued, 1)
	metrics.RecordMessageRejected(true, "transient_or_configuration")
	if d.Reject != nil {
		_ = d.Reject(true)
	}
}
