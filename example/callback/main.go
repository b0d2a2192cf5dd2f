package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghalamif/InfraBoard/pkg/infraboard"
)

func main() {
	flow, err := infraboard.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	callback := func(r *infraboard.Report) error {
		fmt.Printf("%s report=%s rows=%d\n", r.GeneratedAt.Format(time.RFC3339), r.ID, r.Rows)
		for _, k := range r.KPIs {
			fmt.Printf("  %-12s %d\n", k.Status, k.Count)
		}
		for _, reason := range r.Skipped {
			fmt.Printf("  skipped: %s\n", reason)
		}
		return nil
	}

	d, err := flow.Out(infraboard.OutCallback("stdout", callback))
	if err != nil {
		log.Fatalf("build dashboard: %v", err)
	}
	defer d.Shutdown(context.Background())

	if _, err := d.Render(context.Background(), infraboard.Filter{}); err != nil {
		log.Fatalf("render: %v", err)
	}
}
