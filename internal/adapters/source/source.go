package source

import (
	"context"
	"fmt"
	"io"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

// Dataset is a source that can be read as either the infrastructure table or
// the evaluation table.
type Dataset interface {
	ports.Loader
	ports.EvaluationLoader
}

type opener interface {
	open(ctx context.Context) (io.ReadCloser, error)
	name() string
}

// streamSource decodes CSV content from a file or an object store.
type streamSource struct {
	src  opener
	cols Columns
	eval EvaluationColumns
}

func (s *streamSource) Name() string { return s.src.name() }

func (s *streamSource) Load(ctx context.Context) (*domain.Table, error) {
	rc, err := s.src.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := ReadTable(rc, s.cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.src.name(), err)
	}
	return t, nil
}

func (s *streamSource) LoadEvaluation(ctx context.Context) (*domain.EvaluationTable, error) {
	rc, err := s.src.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	t, err := ReadEvaluationTable(rc, s.eval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.src.name(), err)
	}
	return t, nil
}

// NewCSV reads a dataset from a local file on every Load.
func NewCSV(path string, cols Columns, eval EvaluationColumns) Dataset {
	cols.ApplyDefaults()
	eval.ApplyDefaults()
	return &streamSource{src: fileOpener{path: path}, cols: cols, eval: eval}
}

// New builds the dataset described by cfg.
func New(cfg Config, cols Columns, eval EvaluationColumns) (Dataset, error) {
	cfg.ApplyDefaults()
	cols.ApplyDefaults()
	eval.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case "s3":
		op, err := newS3Opener(cfg.S3)
		if err != nil {
			return nil, err
		}
		return &streamSource{src: op, cols: cols, eval: eval}, nil
	case "sql":
		return OpenSQL(cfg.SQL, cols, eval)
	default:
		return NewCSV(cfg.Path, cols, eval), nil
	}
}

var (
	_ Dataset = (*streamSource)(nil)
	_ Dataset = (*SQLSource)(nil)
)
