package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/lifeline-ems/lifeline/core/metrics"
	"github.com/lifeline-ems/lifeline/core/model"
	"github.com/lifeline-ems/lifeline/infra/logger"
)

// InfluxSink writes dispatch activity to an InfluxDB instance using the
// official client. It also records the full per-candidate score
// breakdown for offline analysis of ranking quality.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordIntake writes one point per SOS request.
func (s *InfluxSink) RecordIntake(rec coremetrics.IntakeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sos_request").
		AddTag("request_id", rec.RequestID).
		AddTag("emergency_type", rec.EmergencyType).
		AddTag("severity", rec.Severity).
		AddField("candidates", rec.Candidates).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAssignment writes one point per ambulance assignment.
func (s *InfluxSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("ambulance_assignment").
		AddTag("request_id", rec.RequestID).
		AddTag("ambulance_id", rec.AmbulanceID).
		AddTag("reassigned", boolTag(rec.Reassigned)).
		AddField("distance_km", rec.DistanceKm).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTransition writes one point per request status change.
func (s *InfluxSink) RecordTransition(requestID string, to model.RequestStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_transition").
		AddTag("request_id", requestID).
		AddTag("status", string(to)).
		AddField("count", 1).
		SetTime(at)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordScores writes the per-hospital score breakdown of one ranking call.
func (s *InfluxSink) RecordScores(requestID string, recs []model.ScoreRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, rec := range recs {
		p := write.NewPointWithMeasurement("hospital_score").
			AddTag("request_id", requestID).
			AddTag("hospital_id", rec.HospitalID).
			AddField("facility_score", rec.Facility).
			AddField("distance_score", rec.Distance).
			AddField("bed_score", rec.Bed).
			AddField("specialist_score", rec.Specialist).
			AddField("prediction_score", rec.Prediction).
			AddField("history_score", rec.History).
			AddField("total_score", rec.Total).
			AddField("distance_km", rec.DistanceKm).
			AddField("eta_minutes", rec.ETAMinutes).
			SetTime(rec.CreatedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
