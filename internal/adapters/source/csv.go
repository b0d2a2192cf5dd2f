package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

// ReadTable decodes a delimited dataset with a header row.
func ReadTable(r io.Reader, cols Columns) (*domain.Table, error) {
	cr := newCSVReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty dataset: %w", domain.ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec, err := newObservationDecoder(header, cols)
	if err != nil {
		return nil, err
	}

	t := &domain.Table{Metrics: dec.names}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Observations)+t.Dropped+2, err)
		}
		o, ok := dec.decode(rec)
		if !ok {
			t.Dropped++
			continue
		}
		t.Observations = append(t.Observations, o)
	}
	return t, nil
}

// ReadEvaluationTable decodes the model evaluation dataset. Every column is
// optional; consumers check EvaluationTable.HasColumn.
func ReadEvaluationTable(r io.Reader, cols EvaluationColumns) (*domain.EvaluationTable, error) {
	cr := newCSVReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.EvaluationTable{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dec := newEvaluationDecoder(header, cols)

	t := &domain.EvaluationTable{Columns: dec.columns}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Records)+2, err)
		}
		t.Records = append(t.Records, dec.decode(rec))
	}
	return t, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

type fileOpener struct {
	path string
}

func (f fileOpener) open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", f.path, domain.ErrDatasetNotFound)
		}
		return nil, err
	}
	return file, nil
}

func (f fileOpener) name() string { return "csv:" + f.path }
