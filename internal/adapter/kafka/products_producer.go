package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductEventsProducer = (*ProductsProducer)(nil)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers and produces every record to the
// topic.
func ProducerClientOpt(
	ctx context.Context, cfg ClientConfig, topic string,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append(cfg.opts(),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		)
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerWithClientOpt uses an already built client.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// A ProductsProducer announces products added to the catalog.
type ProductsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewProductsProducer(opts ...ProducerOpt) (ProductsProducer, error) {
	const op = "NewProductsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductsProducer{}, opErr(err, op)
		}
	}

	return ProductsProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "ProductsProducer",
	}, nil
}

func (p ProductsProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p ProductsProducer) ProduceProductsCreated(
	ctx context.Context, ps []domain.Product,
) error {
	const op = "ProduceProductsCreated"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs, err := p.createRecords(ps)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p ProductsProducer) createRecords(
	ps []domain.Product,
) ([]*kgo.Record, error) {
	const op = "createRecords"

	rs := make([]*kgo.Record, 0, len(ps))
	for _, product := range ps {
		s := productToSchemaV1(product)
		v, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		rs = append(rs, &kgo.Record{Key: []byte(s.Name), Value: v})
	}
	return rs, nil
}

func productToSchemaV1(p domain.Product) schema.ProductV1 {
	return schema.ProductV1{
		ProductID:       p.ID,
		Name:            p.Name,
		Price:           p.Price,
		Description:     p.Description,
		CarbonFootprint: p.CarbonFootprint,
		Image:           p.Image,
	}
}

func schemaV1ToProduct(s schema.ProductV1) domain.Product {
	return domain.Product{
		ID:              s.ProductID,
		Name:            s.Name,
		Price:           s.Price,
		Description:     s.Description,
		CarbonFootprint: s.CarbonFootprint,
		Image:           s.Image,
	}
}
