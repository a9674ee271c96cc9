package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"weighit/internal/models"
	"weighit/internal/repository"
)

// EventFilter narrows device event listings by time range and type.
type EventFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CONNECT", "MOCK_FALLBACK", "RECONNECT", "DISCONNECT"
}

type DeviceLogService struct {
	repo repository.DeviceEventRepo
}

func NewDeviceLogService(repo repository.DeviceEventRepo) *DeviceLogService {
	return &DeviceLogService{repo: repo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// Record appends one scale lifecycle event.
func (s *DeviceLogService) Record(ctx context.Context, typ, message string, meta map[string]any) error {
	var metadata any
	if meta != nil {
		metadata = meta
	}
	return s.repo.Append(ctx, models.DeviceEvent{
		Type:        normalizeEventType(typ),
		Description: message,
		Metadata:    metadata,
	})
}

// List returns device events matching the filter, oldest first.
func (s *DeviceLogService) List(ctx context.Context, f EventFilter) ([]models.DeviceEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, from, to, normalizeEventType(f.Type))
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}
