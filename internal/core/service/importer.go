package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	importFields = 5
	// maxImportLine bounds a single row, descriptions included.
	maxImportLine = 1 << 20
)

// ImportMode tells the importer what to do with a malformed row.
type ImportMode string

const (
	ImportFailFast ImportMode = "fail"
	ImportSkip     ImportMode = "skip"
)

func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(s); m {
	case ImportFailFast, ImportSkip:
		return m, nil
	case "":
		return ImportFailFast, nil
	default:
		return "", fmt.Errorf("unknown import mode %q", s)
	}
}

// ImportProductsFile imports the delimited product file at path.
func (s Service) ImportProductsFile(
	ctx context.Context, path, delimiter string, mode ImportMode,
) (int, error) {
	const op = "Service.ImportProductsFile"

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close import file", "op", op, "err", err)
		}
	}()

	n, err := s.ImportProducts(ctx, f, delimiter, mode)
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ImportProducts reads product rows from r and creates the ones whose image
// is not in the catalog yet. The first line is a header and is discarded.
//
// Row fields: name, price, image, carbon footprint, description. Extra
// fields are ignored. Returns the number of created products.
func (s Service) ImportProducts(
	ctx context.Context, r io.Reader, delimiter string, mode ImportMode,
) (int, error) {
	const op = "Service.ImportProducts"
	log := slog.With("op", op)

	if delimiter == "" {
		return 0, fmt.Errorf("%s: empty delimiter", op)
	}

	var created int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}

		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		p, err := parseImportRow(line, delimiter)
		if err != nil {
			err = fmt.Errorf("line %d: %w", lineNo, err)
			if mode == ImportSkip {
				log.Warn("skipping row", "err", err)
				continue
			}
			return created, fmt.Errorf("%s: %w", op, err)
		}

		ok, err := s.createIfAbsent(ctx, p)
		if err != nil {
			return created, fmt.Errorf("%s: line %d: %w", op, lineNo, err)
		}
		if ok {
			created++
		}
	}

	if err := sc.Err(); err != nil {
		return created, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("products imported", "nCreated", created, "nLines", lineNo)
	return created, nil
}

// IngestProducts creates the products whose image is not in the catalog yet.
func (s Service) IngestProducts(
	ctx context.Context, ps []domain.Product,
) (int, error) {
	const op = "Service.IngestProducts"

	var created int
	for _, p := range ps {
		ok, err := s.createIfAbsent(ctx, p)
		if err != nil {
			return created, fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s Service) createIfAbsent(
	ctx context.Context, p domain.Product,
) (bool, error) {
	_, err := s.productsStorage.ReadProductByImage(ctx, p.Image)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	if _, err := s.CreateProduct(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

func parseImportRow(line, delimiter string) (domain.Product, error) {
	fields := strings.Split(line, delimiter)
	if len(fields) < importFields {
		return domain.Product{}, fmt.Errorf(
			"%w: want %d fields, got %d",
			domain.ErrMalformedRow, importFields, len(fields),
		)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: price: %w", domain.ErrMalformedRow, err)
	}

	footprint, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf(
			"%w: carbon footprint: %w", domain.ErrMalformedRow, err,
		)
	}

	return domain.Product{
		Name:            fields[0],
		Price:           price,
		Image:           fields[2],
		CarbonFootprint: footprint,
		Description:     fields[4],
	}, nil
}
