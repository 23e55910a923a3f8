package services

import (
	"context"
	"fmt"
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// FanoutStats describes one fan-out pass
type FanoutStats struct {
	Event      string
	CompanyID  string
	Recipients int
	Stored     int
	Pushed     int // rows that reached at least one live connection
	Emailed    int
	Failed     int
	Duration   time.Duration
}

// MetricsRecorder receives fan-out statistics
type MetricsRecorder interface {
	RecordFanout(ctx context.Context, stats FanoutStats)
}

// NopMetrics discards everything
type NopMetrics struct{}

// RecordFanout does nothing
func (NopMetrics) RecordFanout(context.Context, FanoutStats) {}

// InfluxMetrics writes fan-out statistics to InfluxDB
type InfluxMetrics struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxMetrics creates a new InfluxDB metrics sink
func NewInfluxMetrics(url, token, org, bucket string) (*InfluxMetrics, error) {
	log.Printf("[INFLUX] Initializing InfluxDB client: url=%s, org=%s, bucket=%s", url, org, bucket)

	client := influxdb2.NewClient(url, token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		log.Printf("[INFLUX] Health check returned status: %s", health.Status)
	}

	return &InfluxMetrics{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		org:      org,
		bucket:   bucket,
	}, nil
}

// RecordFanout writes one point per fan-out pass. Failures are logged only.
func (m *InfluxMetrics) RecordFanout(ctx context.Context, stats FanoutStats) {
	p := influxdb2.NewPoint(
		"notification_fanout",
		map[string]string{
			"event":      stats.Event,
			"company_id": stats.CompanyID,
		},
		map[string]interface{}{
			"recipients":  stats.Recipients,
			"stored":      stats.Stored,
			"pushed":      stats.Pushed,
			"emailed":     stats.Emailed,
			"failed":      stats.Failed,
			"duration_ms": stats.Duration.Milliseconds(),
		},
		time.Now(),
	)

	if err := m.writeAPI.WritePoint(ctx, p); err != nil {
		log.Printf("[INFLUX] Failed to write fan-out point: org=%s, bucket=%s, error=%v", m.org, m.bucket, err)
	}
}

// Close closes the InfluxDB client connection
func (m *InfluxMetrics) Close() error {
	if m.client != nil {
		m.client.Close()
	}
	return nil
}
