package schema

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier registers a schema under the subject and returns its
// registry id. Registering an already known schema returns the existing id.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (int, error)
}

type RegistryIdentifier struct {
	cl *sr.Client
}

func NewRegistryIdentifier(urls []string) (RegistryIdentifier, error) {
	const op = "NewRegistryIdentifier"

	cl, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		return RegistryIdentifier{}, fmt.Errorf("%s: %w", op, err)
	}
	return RegistryIdentifier{cl}, nil
}

func (r RegistryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := r.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

// ValueSubject is the registry subject of record values in the topic.
func ValueSubject(topic string) string {
	return topic + "-value"
}
