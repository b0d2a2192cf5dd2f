package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/ghalamif/InfraBoard"
)

func main() {
	statuses := []string{"Normal", "Advertencia", "Crítico", "Inactivo"}
	ds := infraboard.NewMemoryDataset("simulated")
	start := time.Now().AddDate(0, 0, -30)
	for i := 0; i < 300; i++ {
		ds.Record(start.Add(time.Duration(i)*144*time.Minute), statuses[rand.Intn(len(statuses))], map[string]float64{
			"cpu":         20 + rand.Float64()*70,
			"memory":      30 + rand.Float64()*60,
			"network":     rand.Float64() * 500,
			"temperature": 35 + rand.Float64()*40,
		})
	}

	cfg := infraboard.DefaultConfig("unused.csv")
	cfg.Policy.Strategies = []string{"linear_trend", "forest"}

	sink, reports, closeReports := infraboard.NewChannelSink("fanout", 8)
	defer closeReports()

	d, err := infraboard.NewDashboard(cfg, infraboard.WithLoader(ds), infraboard.WithSink(sink))
	if err != nil {
		log.Fatalf("build dashboard: %v", err)
	}
	defer d.Shutdown(context.Background())

	go fanoutWorker("kpis", reports)

	for _, status := range statuses {
		if _, err := d.Render(context.Background(), infraboard.Filter{Status: status}); err != nil {
			log.Fatalf("render %s: %v", status, err)
		}
	}
	time.Sleep(100 * time.Millisecond)
}

func fanoutWorker(name string, reports <-chan *infraboard.Report) {
	for r := range reports {
		fmt.Printf("[%s] %s rows=%d forecasts=%d skipped=%d\n", name, r.Filter.Status, r.Rows, len(r.Forecasts), len(r.Skipped))
	}
}
