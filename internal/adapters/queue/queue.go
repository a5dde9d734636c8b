package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Task types produced by the risk scoring and sensor ingestion services.
const (
	TypeRiskAssessed  = "status:risk_assessed"
	TypeSensorReading = "status:sensor_reading"
)

type RiskAssessedPayload struct {
	SeniorID  domain.SeniorID `json:"senior_id"`
	RiskLevel string          `json:"risk_level"`
	Reason    string          `json:"reason"`
}

type SensorReadingPayload struct {
	SeniorID  domain.SeniorID `json:"senior_id"`
	SensorID  string          `json:"sensor_id"`
	Value     bool            `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// StatusSink receives decoded tasks.
type StatusSink interface {
	RiskAssessed(ctx context.Context, senior domain.SeniorID, level domain.RiskLevel, reason string) error
	SensorReading(ctx context.Context, senior domain.SeniorID, r domain.SensorReading) error
}

func NewRiskAssessedTask(p RiskAssessedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRiskAssessed, b), nil
}

func NewSensorReadingTask(p SensorReadingPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSensorReading, b), nil
}

// Consumer runs an asynq server bound to the status task types.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewConsumer(redisURL string, concurrency int, sink StatusSink) (*Consumer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"critical": 6, "default": 3},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("module", "queue").Str("type", task.Type()).Msg("task failed")
		}),
		Logger:   zerologAdapter{},
		LogLevel: asynq.WarnLevel,
	})
	return &Consumer{server: srv, mux: NewMux(sink)}, nil
}

// NewMux routes status tasks to sink.
func NewMux(sink StatusSink) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRiskAssessed, handleRiskAssessed(sink))
	mux.HandleFunc(TypeSensorReading, handleSensorReading(sink))
	return mux
}

// Run starts the server and blocks until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.server.Start(c.mux); err != nil {
		return fmt.Errorf("asynq: start: %w", err)
	}
	log.Info().Str("module", "queue").Msg("consumer started")
	<-ctx.Done()
	c.server.Shutdown()
	log.Info().Str("module", "queue").Msg("consumer stopped")
	return nil
}

// Malformed payloads are not retried.
func handleRiskAssessed(sink StatusSink) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p RiskAssessedPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("risk assessed payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.SeniorID <= 0 {
			return fmt.Errorf("risk assessed without senior_id: %w", asynq.SkipRetry)
		}
		level, err := domain.ParseRiskLevel(p.RiskLevel)
		if err != nil {
			return fmt.Errorf("risk level %q: %v: %w", p.RiskLevel, err, asynq.SkipRetry)
		}
		return sink.RiskAssessed(ctx, p.SeniorID, level, p.Reason)
	}
}

func handleSensorReading(sink StatusSink) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p SensorReadingPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("sensor reading payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.SeniorID <= 0 || p.SensorID == "" {
			return fmt.Errorf("sensor reading needs senior_id and sensor_id: %w", asynq.SkipRetry)
		}
		return sink.SensorReading(ctx, p.SeniorID, domain.SensorReading{
			SensorID:  p.SensorID,
			Value:     p.Value,
			Timestamp: p.Timestamp,
		})
	}
}

// zerologAdapter routes asynq's internal logging through zerolog.
type zerologAdapter struct{}

func (zerologAdapter) Debug(args ...any) { log.Debug().Str("module", "asynq").Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Info(args ...any)  { log.Info().Str("module", "asynq").Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Warn(args ...any)  { log.Warn().Str("module", "asynq").Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Error(args ...any) { log.Error().Str("module", "asynq").Msg(fmt.Sprint(args...)) }
func (zerologAdapter) Fatal(args ...any) { log.Fatal().Str("module", "asynq").Msg(fmt.Sprint(args...)) }
