// Package metrics records portal events as InfluxDB points.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/wixxidevelop/blue/pkg/messaging"
	"github.com/wixxidevelop/blue/pkg/money"
)

// Measurement is the InfluxDB measurement every event is written to
const Measurement = "portal_events"

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxSink writes one point per event. It implements messaging.Publisher.
type InfluxSink struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
}

// NewInfluxSink creates a sink. No connection is made until the first write.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	opts := influxdb2.DefaultOptions().SetHTTPRequestTimeout(5)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (s *InfluxSink) Publish(ctx context.Context, event *messaging.Event) error {
	p, err := Point(event)
	if err != nil {
		return err
	}
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("failed to write %s point: %w", event.Type, err)
	}
	return nil
}

func (s *InfluxSink) Close() {
	s.client.Close()
}

// Point converts an event. Completed transactions carry their fee amounts
// when they parse as numbers.
func Point(event *messaging.Event) (*write.Point, error) {
	p := influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("type", event.Type).
		AddField("count", 1).
		SetTime(event.Timestamp)

	switch event.Type {
	case messaging.EventTypeTransactionCompleted:
		var data messaging.TransactionCompletedEvent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", event.Type, err)
		}
		if d, ok := money.Parse(data.MiningFee); ok {
			p.AddField("mining_fee", d.InexactFloat64())
		}
		if d, ok := money.Parse(data.Commission); ok {
			p.AddField("commission", d.InexactFloat64())
		}
	case messaging.EventTypeSystemToggled:
		var data messaging.SystemToggledEvent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", event.Type, err)
		}
		p.AddField("active", data.IsActive)
	}
	return p, nil
}
