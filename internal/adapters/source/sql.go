package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/ghalamif/InfraBoard/internal/domain"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// quoteTable quotes a validated [schema.]table for the driver's dialect.
func quoteTable(driver, table string) (string, error) {
	if !identifierPattern.MatchString(table) {
		return "", fmt.Errorf("invalid table identifier %q", table)
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		switch driver {
		case "mysql":
			parts[i] = "`" + p + "`"
		case "sqlserver":
			parts[i] = "[" + p + "]"
		default:
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, "."), nil
}

// SQLSource reads a dataset table with SELECT * and decodes it the same way
// as a CSV file, using the result's column names as the header.
type SQLSource struct {
	db     *sql.DB
	driver string
	table  string
	cols   Columns
	eval   EvaluationColumns
}

func OpenSQL(cfg SQLConfig, cols Columns, eval EvaluationColumns) (*SQLSource, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}
	return NewSQLSource(db, driver, cfg.Table, cols, eval), nil
}

func NewSQLSource(db *sql.DB, driver, table string, cols Columns, eval EvaluationColumns) *SQLSource {
	cols.ApplyDefaults()
	eval.ApplyDefaults()
	return &SQLSource{db: db, driver: driver, table: table, cols: cols, eval: eval}
}

func (s *SQLSource) Name() string { return s.driver + ":" + s.table }

func (s *SQLSource) Load(ctx context.Context) (*domain.Table, error) {
	header, rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	dec, err := newObservationDecoder(header, s.cols)
	if err != nil {
		return nil, err
	}
	t := &domain.Table{Metrics: dec.names}
	for _, rec := range rows {
		o, ok := dec.decode(rec)
		if !ok {
			t.Dropped++
			continue
		}
		t.Observations = append(t.Observations, o)
	}
	return t, nil
}

func (s *SQLSource) LoadEvaluation(ctx context.Context) (*domain.EvaluationTable, error) {
	header, rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	dec := newEvaluationDecoder(header, s.eval)
	t := &domain.EvaluationTable{Columns: dec.columns, Records: make([]domain.EvaluationRecord, 0, len(rows))}
	for _, rec := range rows {
		t.Records = append(t.Records, dec.decode(rec))
	}
	return t, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) fetch(ctx context.Context) ([]string, [][]string, error) {
	quoted, err := quoteTable(s.driver, s.table)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns %s: %w", s.table, err)
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				rec[i] = c.String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return header, out, nil
}
