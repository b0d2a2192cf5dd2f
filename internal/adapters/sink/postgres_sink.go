package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

var prefixPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresSink stores each report header with its daily counts and forecast
// points. Rows are keyed by report ID so replays are idempotent.
type PostgresSink struct {
	db     *sql.DB
	prefix string
}

func NewPostgresSink(db *sql.DB, tablePrefix string) (*PostgresSink, error) {
	if !prefixPattern.MatchString(tablePrefix) {
		return nil, fmt.Errorf("invalid table prefix %q", tablePrefix)
	}
	return &PostgresSink{db: db, prefix: tablePrefix}, nil
}

func (p *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the sink tables when they are missing.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_reports (
	id TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	rows INTEGER NOT NULL,
	kpis JSONB NOT NULL
)`, p.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_daily_counts (
	report_id TEXT NOT NULL,
	day DATE NOT NULL,
	status TEXT NOT NULL,
	count INTEGER NOT NULL,
	smoothed DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (report_id, day, status)
)`, p.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_forecasts (
	report_id TEXT NOT NULL,
	strategy TEXT NOT NULL,
	status TEXT NOT NULL,
	metric TEXT NOT NULL,
	day DATE NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (report_id, strategy, status, metric, day)
)`, p.prefix),
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresSink) WriteReport(ctx context.Context, r *domain.Report) error {
	if r == nil {
		return nil
	}
	kpis, err := json.Marshal(r.KPIs)
	if err != nil {
		return fmt.Errorf("marshal kpis: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+p.prefix+"_reports (id, generated_at, rows, kpis) VALUES ($1,$2,$3,$4) ON CONFLICT (id) DO NOTHING",
		r.ID, r.GeneratedAt, r.Rows, kpis)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, st := range p.dailyInserts(r) {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("insert daily counts: %w", err)
		}
	}
	for _, st := range p.forecastInserts(r) {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("insert forecasts: %w", err)
		}
	}

	return tx.Commit()
}

// maxParams is the bind parameter limit of a single Postgres statement.
var maxParams = 65535

type statement struct {
	query string
	args  []any
}

func (p *PostgresSink) dailyInserts(r *domain.Report) []statement {
	rows := make([][]any, 0, len(r.Daily))
	for _, d := range r.Daily {
		rows = append(rows, []any{r.ID, d.Date, d.Status, d.Count, d.Smoothed})
	}
	return p.batchInsert("_daily_counts (report_id, day, status, count, smoothed)", "report_id, day, status", 5, rows)
}

func (p *PostgresSink) forecastInserts(r *domain.Report) []statement {
	strategies := make([]string, 0, len(r.Forecasts))
	for name := range r.Forecasts {
		strategies = append(strategies, name)
	}
	sort.Strings(strategies)

	var rows [][]any
	for _, name := range strategies {
		for _, pt := range r.Forecasts[name] {
			rows = append(rows, []any{r.ID, name, pt.Status, pt.Metric, pt.Date, pt.Value})
		}
	}
	return p.batchInsert("_forecasts (report_id, strategy, status, metric, day, value)", "report_id, strategy, status, metric, day", 6, rows)
}

// batchInsert splits rows into multi-row inserts that stay under maxParams.
func (p *PostgresSink) batchInsert(target, conflict string, width int, rows [][]any) []statement {
	per := maxParams / width
	var out []statement
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))

		var b strings.Builder
		b.WriteString("INSERT INTO ")
		b.WriteString(p.prefix)
		b.WriteString(target)
		b.WriteString(" VALUES ")
		args := make([]any, 0, (end-start)*width)
		for i, row := range rows[start:end] {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(placeholders(len(args), width))
			args = append(args, row...)
		}
		b.WriteString(" ON CONFLICT (")
		b.WriteString(conflict)
		b.WriteString(") DO NOTHING")
		out = append(out, statement{query: b.String(), args: args})
	}
	return out
}

func placeholders(offset, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

var _ ports.ReportSink = (*PostgresSink)(nil)
