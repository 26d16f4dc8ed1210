package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	"github.com/zatekoja/hospital-booking-core/internal/domain/repositories"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/hospital-booking-core/pkg/errors"
)

// Working hours: Mon-Fri 09:00-17:00, Sat 09:00-13:00, Sun closed.
const (
	openingHour        = 9
	weekdayClosingHour = 17
	saturdayClosing    = 13
)

// SlotService computes provider slot availability. The math is pure;
// existing bookings come through the appointment repository and listings
// are cached in Redis when a cache is configured.
type SlotService struct {
	appointments repositories.AppointmentRepository
	cache        providers.CacheProvider
	cacheTTL     time.Duration
}

// NewSlotService creates a new slot service. cache may be nil; listings
// are then computed on every call.
func NewSlotService(appointments repositories.AppointmentRepository, cache providers.CacheProvider, cacheTTL time.Duration) *SlotService {
	return &SlotService{
		appointments: appointments,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

// WorkingWindow returns the provider working window for a date. open is
// false on closed days.
func WorkingWindow(date time.Time) (start, end time.Time, open bool) {
	year, month, day := date.Date()
	loc := date.Location()

	switch date.Weekday() {
	case time.Sunday:
		return time.Time{}, time.Time{}, false
	case time.Saturday:
		start = time.Date(year, month, day, openingHour, 0, 0, 0, loc)
		end = time.Date(year, month, day, saturdayClosing, 0, 0, 0, loc)
	default:
		start = time.Date(year, month, day, openingHour, 0, 0, 0, loc)
		end = time.Date(year, month, day, weekdayClosingHour, 0, 0, 0, loc)
	}
	return start, end, true
}

// ListAvailableSlots partitions the working window for date into
// contiguous slots of durationMinutes and removes every candidate that
// overlaps an existing non-cancelled booking. The result is ordered
// ascending; an empty result is a valid answer (closed or fully booked
// day). A trailing partial slot that would extend past closing time is
// excluded.
func (s *SlotService) ListAvailableSlots(ctx context.Context, providerID string, date time.Time, durationMinutes int) ([]time.Time, error) {
	if providerID == "" {
		return nil, apperrors.NewValidationError("provider id is required")
	}
	if durationMinutes <= 0 {
		return nil, apperrors.NewValidationError("duration must be positive")
	}

	if cached, ok := s.cachedSlots(ctx, providerID, date, durationMinutes); ok {
		return cached, nil
	}

	windowStart, windowEnd, open := WorkingWindow(date)
	if !open {
		return []time.Time{}, nil
	}

	booked, err := s.bookedIntervals(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	slots := []time.Time{}
	for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(duration) {
		if !overlapsAny(start, start.Add(duration), booked) {
			slots = append(slots, start)
		}
	}

	s.storeSlots(ctx, providerID, date, durationMinutes, slots)
	return slots, nil
}

// IsSlotFree reports whether the candidate slot lies inside the working
// window and overlaps no existing non-cancelled booking. It is the
// authoritative gate immediately before commit: listings may be stale by
// the time the request is submitted.
func (s *SlotService) IsSlotFree(ctx context.Context, providerID string, start time.Time, durationMinutes int) (bool, error) {
	if durationMinutes <= 0 {
		return false, apperrors.NewValidationError("duration must be positive")
	}

	windowStart, windowEnd, open := WorkingWindow(start)
	if !open {
		return false, nil
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if start.Before(windowStart) || end.After(windowEnd) {
		return false, nil
	}

	booked, err := s.bookedIntervals(ctx, providerID, start)
	if err != nil {
		return false, err
	}

	return !overlapsAny(start, end, booked), nil
}

// InvalidateDay drops cached listings for the provider's day. Callers
// invoke it after any booking state change; failures only mean a stale
// listing survives until its TTL.
func (s *SlotService) InvalidateDay(ctx context.Context, providerID string, date time.Time) {
	if s.cache == nil {
		return
	}

	genKey := slotGenerationKey(providerID, date)
	if err := s.cache.Set(ctx, genKey, []byte(uuid.New().String()), int(s.cacheTTL.Seconds())+1); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).
			Str("provider_id", providerID).Msg("failed to invalidate slot cache")
	}
}

type bookedInterval struct {
	start time.Time
	end   time.Time
}

func (s *SlotService) bookedIntervals(ctx context.Context, providerID string, date time.Time) ([]bookedInterval, error) {
	year, month, day := date.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	appointments, err := s.appointments.ListByProviderBetween(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	intervals := make([]bookedInterval, 0, len(appointments))
	for _, appt := range appointments {
		if !appt.Occupies() {
			continue
		}
		intervals = append(intervals, bookedInterval{start: appt.ScheduledAt, end: appt.End()})
	}
	return intervals, nil
}

// overlapsAny applies the half-open interval test: [aStart, aEnd)
// overlaps [bStart, bEnd) iff aStart < bEnd && aEnd > bStart. Touching
// endpoints do not overlap.
func overlapsAny(start, end time.Time, booked []bookedInterval) bool {
	for _, b := range booked {
		if start.Before(b.end) && end.After(b.start) {
			return true
		}
	}
	return false
}

// Slot cache keys carry a per-day generation token; bumping the token
// invalidates every duration variant for that day at once.

func slotGenerationKey(providerID string, date time.Time) string {
	return fmt.Sprintf("slots:gen:%s:%s", providerID, date.Format("2006-01-02"))
}

func (s *SlotService) slotDataKey(ctx context.Context, providerID string, date time.Time, durationMinutes int) string {
	gen := "0"
	if raw, err := s.cache.Get(ctx, slotGenerationKey(providerID, date)); err == nil {
		gen = string(raw)
	}
	return fmt.Sprintf("slots:%s:%s:%d:g%s", providerID, date.Format("2006-01-02"), durationMinutes, gen)
}

func (s *SlotService) cachedSlots(ctx context.Context, providerID string, date time.Time, durationMinutes int) ([]time.Time, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, s.slotDataKey(ctx, providerID, date, durationMinutes))
	if err != nil {
		return nil, false
	}

	var slots []time.Time
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (s *SlotService) storeSlots(ctx context.Context, providerID string, date time.Time, durationMinutes int, slots []time.Time) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.slotDataKey(ctx, providerID, date, durationMinutes), raw, int(s.cacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).
			Str("provider_id", providerID).Msg("failed to cache slot listing")
	}
}
