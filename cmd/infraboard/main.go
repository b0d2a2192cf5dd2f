package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/InfraBoard"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "serve":
		err = serveCommand(os.Args[2:])
	case "render":
		err = renderCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("infraboard %s: %v", cmd, err)
	}
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to dashboard configuration file")
	preload := fs.Bool("preload", false, "Read the dataset once at startup and reuse it for every pass")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := infraboard.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	d, err := flow.Out()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flow.Config().Sink.ConnString != "" {
		if err := d.EnsureSchema(ctx); err != nil {
			_ = d.Shutdown(context.Background())
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if *preload {
		if err := d.Preload(ctx); err != nil {
			_ = d.Shutdown(context.Background())
			return fmt.Errorf("preload: %w", err)
		}
	}
	return d.Run(ctx)
}

func renderCommand(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to dashboard configuration file")
	statuses := fs.String("status", "", "Comma-separated statuses to keep")
	selected := fs.String("selected", "", "Single status to drill into")
	from := fs.String("from", "", "First day to keep (YYYY-MM-DD)")
	to := fs.String("to", "", "Last day to keep (YYYY-MM-DD)")
	pretty := fs.Bool("pretty", false, "Indent the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := infraboard.Filter{Status: strings.TrimSpace(*selected)}
	if *statuses != "" {
		for _, s := range strings.Split(*statuses, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, s)
			}
		}
	}
	var err error
	if filter.From, err = parseDay(*from); err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	if filter.To, err = parseDay(*to); err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	flow, err := infraboard.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	d, err := flow.Out()
	if err != nil {
		return err
	}
	defer d.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := d.Render(ctx, filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rep)
}

func parseDay(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := infraboard.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"infraboard_renders_total":         0,
		"infraboard_render_failures_total": 0,
		"infraboard_rows_loaded":           0,
		"infraboard_outbox_pending":        0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] renders=%.0f failures=%.0f rows=%.0f outbox=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["infraboard_renders_total"],
		targets["infraboard_render_failures_total"],
		targets["infraboard_rows_loaded"],
		targets["infraboard_outbox_pending"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`InfraBoard CLI

Usage:
  infraboard <command> [flags]

Commands:
  serve      Serve the dashboard, its JSON API and Prometheus metrics
  render     Run one pass and print the report as JSON
  validate   Load and validate a config file without serving
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  infraboard serve -config ./data/config.yaml
  infraboard render -config ./data/config.yaml -status Crítico,Advertencia -from 2024-01-01 -pretty
  infraboard validate -config ./data/config.yaml
  infraboard stats -url http://localhost:9100/metrics -interval 1s
`)
}
