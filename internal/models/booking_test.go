package models

import (
	"errors"
	"testing"
)

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{"CONFIRMED", "WAITLIST", "CANCELLED"} {
		if _, err := ParseBookingStatus(s); err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
		}
	}
	for _, s := range []string{"", "confirmed", "PENDING"} {
		if _, err := ParseBookingStatus(s); !errors.Is(err, ErrUnknownBookingStatus) {
			t.Errorf("%q: expected ErrUnknownBookingStatus, got %v", s, err)
		}
	}
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingConfirmed, BookingWaitlist, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingWaitlist, BookingCancelled, true},
		{BookingWaitlist, BookingConfirmed, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingWaitlist, false},
		{BookingConfirmed, BookingConfirmed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestBookingStatus_ScanValue(t *testing.T) {
	var s BookingStatus
	if err := s.Scan([]byte("WAITLIST")); err != nil || s != BookingWaitlist {
		t.Errorf("expected WAITLIST, got %q (%v)", s, err)
	}
	if err := s.Scan("BOGUS"); !errors.Is(err, ErrUnknownBookingStatus) {
		t.Errorf("expected ErrUnknownBookingStatus, got %v", err)
	}
	if err := s.Scan(42); err == nil {
		t.Error("expected an error for an integer")
	}
	if _, err := BookingStatus("PENDING").Value(); !errors.Is(err, ErrUnknownBookingStatus) {
		t.Errorf("expected ErrUnknownBookingStatus, got %v", err)
	}
	if !BookingWaitlist.Active() || BookingCancelled.Active() {
		t.Error("unexpected Active result")
	}
}
