package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrUnknownRiskLevel = errors.New("unknown risk level")

type RiskLevel string

const (
	RiskSafe    RiskLevel = "SAFE"
	RiskCaution RiskLevel = "CAUTION"
	RiskDanger  RiskLevel = "DANGER"
	RiskUnknown RiskLevel = "UNKNOWN"
)

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch r := RiskLevel(strings.ToUpper(strings.TrimSpace(s))); r {
	case RiskSafe, RiskCaution, RiskDanger, RiskUnknown:
		return r, nil
	}
	return "", ErrUnknownRiskLevel
}

type SeniorStatus struct {
	SeniorID    SeniorID  `json:"senior_id"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Reason      string    `json:"reason"`
	LastUpdated time.Time `json:"last_updated"`
}

type SensorStatus struct {
	SeniorID    SeniorID  `json:"senior_id"`
	SensorID    string    `json:"sensor_id"`
	SensorKind  string    `json:"sensor_kind"`
	Location    string    `json:"location"`
	Value       bool      `json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}

// SplitSensorID splits ids of the form <kind>_<location>, e.g. door_bedroom.
// An id without a separator is all kind, with an unknown location.
func SplitSensorID(id string) (kind, location string) {
	kind, location, ok := strings.Cut(id, "_")
	if !ok || location == "" {
		return kind, "unknown"
	}
	return kind, location
}

// SensorReading is one raw reading reported by a hub.
type SensorReading struct {
	SensorID  string    `json:"sensor_id"`
	Value     bool      `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
