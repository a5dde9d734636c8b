package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/carelink/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type risk struct {
	senior domain.SeniorID
	level  domain.RiskLevel
	reason string
}

type fakeSink struct {
	risks    []risk
	readings []domain.SensorReading
	err      error
}

func (s *fakeSink) RiskAssessed(_ context.Context, senior domain.SeniorID, level domain.RiskLevel, reason string) error {
	s.risks = append(s.risks, risk{senior, level, reason})
	return s.err
}

func (s *fakeSink) SensorReading(_ context.Context, _ domain.SeniorID, r domain.SensorReading) error {
	s.readings = append(s.readings, r)
	return s.err
}

func TestRiskAssessedTask(t *testing.T) {
	sink := &fakeSink{}
	mux := NewMux(sink)
	task, err := NewRiskAssessedTask(RiskAssessedPayload{SeniorID: 7, RiskLevel: "danger", Reason: "no movement"})
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), task))
	require.Equal(t, []risk{{7, domain.RiskDanger, "no movement"}}, sink.risks)
}

func TestSensorReadingTask(t *testing.T) {
	sink := &fakeSink{}
	at := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	task, err := NewSensorReadingTask(SensorReadingPayload{SeniorID: 7, SensorID: "door_bedroom", Value: true, Timestamp: at})
	require.NoError(t, err)

	require.NoError(t, NewMux(sink).ProcessTask(context.Background(), task))
	require.Len(t, sink.readings, 1)
	require.Equal(t, "door_bedroom", sink.readings[0].SensorID)
	require.True(t, sink.readings[0].Timestamp.Equal(at))
}

func TestMalformedTasksSkipRetry(t *testing.T) {
	mux := NewMux(&fakeSink{})
	ctx := context.Background()
	cases := map[string]*asynq.Task{
		"not json":       asynq.NewTask(TypeRiskAssessed, []byte("{")),
		"unknown level":  asynq.NewTask(TypeRiskAssessed, []byte(`{"senior_id":7,"risk_level":"PURPLE"}`)),
		"missing senior": asynq.NewTask(TypeRiskAssessed, []byte(`{"risk_level":"SAFE"}`)),
		"missing sensor": asynq.NewTask(TypeSensorReading, []byte(`{"senior_id":7}`)),
	}
	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, mux.ProcessTask(ctx, task), asynq.SkipRetry)
		})
	}
}

func TestSinkErrorsAreRetried(t *testing.T) {
	boom := errors.New("redis down")
	task, err := NewRiskAssessedTask(RiskAssessedPayload{SeniorID: 7, RiskLevel: "SAFE"})
	require.NoError(t, err)

	err = NewMux(&fakeSink{err: boom}).ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestNewConsumerRejectsBadURL(t *testing.T) {
	_, err := NewConsumer("://nope", 1, &fakeSink{})
	require.Error(t, err)
}
