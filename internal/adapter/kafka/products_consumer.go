package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl       ConsumerClient
	ingester port.ProductsIngester
	decoder  Decoder
}

func ConsumerClientOpt(cfg ClientConfig, topic, group string) ConsumerOpt {
	return func(opts *consumerOpts) error {
		kopts := append(cfg.opts(),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		)
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ConsumerWithClientOpt uses an already built client.
func ConsumerWithClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(opts *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ConsumerIngesterOpt(i port.ProductsIngester) ConsumerOpt {
	return func(opts *consumerOpts) error {
		if i == nil {
			return errors.New("products ingester is nil")
		}
		opts.ingester = i
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(opts *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		opts.decoder = decoder
		return nil
	}
}

// A ProductsConsumer reads the catalog feed and ingests the products that
// are not in the catalog yet. Offsets are committed after a successful
// ingest. A failed batch is fetched again from its first record.
type ProductsConsumer struct {
	cl       ConsumerClient
	ingester port.ProductsIngester
	decoder  Decoder
	errTimer *time.Timer
	opPrefix string
}

func NewProductsConsumer(opts ...ConsumerOpt) (ProductsConsumer, error) {
	const op = "NewProductsConsumer"

	if len(opts) != 3 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options consumerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductsConsumer{}, opErr(err, op)
		}
	}

	return ProductsConsumer{
		cl:       options.cl,
		ingester: options.ingester,
		decoder:  options.decoder,
		errTimer: time.NewTimer(0),
		opPrefix: "ProductsConsumer",
	}, nil
}

func (c ProductsConsumer) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown(ctx)
			}
		}
	}
}

func (c ProductsConsumer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("closing consumer...")
	c.errTimer.Stop()
	c.cl.Close()
	log.Info("consumer is closed")
}

func (c ProductsConsumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	if ps := c.toDomain(fetches); len(ps) != 0 {
		n, err := c.ingester.IngestProducts(ctx, ps)
		if err != nil {
			c.rewind(fetches)
			return opErr(err, c.opPrefix, op)
		}
		slog.Info("products ingested",
			"op", makeOp(c.opPrefix, op), "nReceived", len(ps), "nCreated", n)
	}

	return c.commit(ctx)
}

func (c ProductsConsumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		errsMessages = append(errsMessages,
			fmt.Sprintf("topic %q partition %d: %q", t, p, err))
	})
	if len(errsMessages) != 0 {
		return nil, opErr(errors.New(strings.Join(errsMessages, "; ")),
			c.opPrefix, op)
	}

	return fetches, nil
}

func (c ProductsConsumer) commit(ctx context.Context) error {
	const op = "commit"

	if err := ctx.Err(); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// rewind moves every fetched partition back to its first record of the batch.
func (c ProductsConsumer) rewind(fetches kgo.Fetches) {
	offsets := make(map[string]map[int32]kgo.EpochOffset)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		if len(p.Records) == 0 {
			return
		}
		first := p.Records[0]
		if offsets[p.Topic] == nil {
			offsets[p.Topic] = make(map[int32]kgo.EpochOffset)
		}
		offsets[p.Topic][p.Partition] = kgo.EpochOffset{
			Epoch:  first.LeaderEpoch,
			Offset: first.Offset,
		}
	})
	if len(offsets) != 0 {
		c.cl.SetOffsets(offsets)
	}
}

// toDomain skips records that cannot be decoded or carry no name.
func (c ProductsConsumer) toDomain(fetches kgo.Fetches) []domain.Product {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	var ps []domain.Product
	fetches.EachRecord(func(r *kgo.Record) {
		var s schema.ProductV1
		if err := c.decoder.Decode(r.Value, &s); err != nil {
			log.Error("failed to decode value",
				"topic", r.Topic, "offset", r.Offset, "err", err)
			return
		}
		if strings.TrimSpace(s.Name) == "" {
			log.Warn("product without name skipped",
				"topic", r.Topic, "offset", r.Offset)
			return
		}
		ps = append(ps, schemaV1ToProduct(s))
	})
	return ps
}

func (c ProductsConsumer) slowDown(ctx context.Context) {
	const timeout = 1 * time.Second
	c.errTimer.Reset(timeout)
	select {
	case <-ctx.Done():
	case <-c.errTimer.C:
	}
}
