package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/workshop-booking-api/internal/admission"
	"github.com/gdg-garage/workshop-booking-api/internal/auth"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"github.com/gdg-garage/workshop-booking-api/internal/store"
)

type BookingHandler struct {
	engine      *admission.Engine
	store       *store.Store
	authHandler *auth.AuthHandler
}

func NewBookingHandler(engine *admission.Engine, s *store.Store, authHandler *auth.AuthHandler) *BookingHandler {
	return &BookingHandler{engine: engine, store: s, authHandler: authHandler}
}

type BookingResponse struct {
	ID           uint                 `json:"id"`
	ChildID      uint                 `json:"child_id"`
	ChildName    string               `json:"child_name,omitempty"`
	WorkshopID   uint                 `json:"workshop_id"`
	WorkshopName string               `json:"workshop_name,omitempty"`
	StartTime    *time.Time           `json:"start_time,omitempty"`
	EndTime      *time.Time           `json:"end_time,omitempty"`
	Status       models.BookingStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newBookingResponse(b models.Booking) BookingResponse {
	res := BookingResponse{
		ID:         b.ID,
		ChildID:    b.ChildID,
		WorkshopID: b.WorkshopID,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if b.Child != nil {
		res.ChildName = b.Child.FullName()
	}
	if b.Workshop != nil {
		res.WorkshopName = b.Workshop.Name
		res.StartTime = &b.Workshop.StartTime
		res.EndTime = &b.Workshop.EndTime
	}
	return res
}

type CreateBookingInput struct {
	auth.AuthInput
	Body struct {
		ChildID    uint   `json:"child_id" minimum:"1" doc:"Child to book"`
		WorkshopID uint   `json:"workshop_id" minimum:"1" doc:"Workshop to book"`
		Status     string `json:"status,omitempty" enum:"CONFIRMED,WAITLIST" doc:"CONFIRMED (default) or WAITLIST"`
	}
}

type CreateBookingOutput struct {
	Status int
	Body   BookingResponse
}

// HandleCreate answers 201 for a confirmed seat and 200 when the child was put
// on the waitlist.
func (h *BookingHandler) HandleCreate(ctx context.Context, input *CreateBookingInput) (*CreateBookingOutput, error) {
	parentID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	child, err := h.store.FindChild(ctx, input.Body.ChildID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("Child not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load child")
	}
	if child.ParentID != parentID {
		return nil, huma.Error403Forbidden("You can only book for your own children")
	}

	booking, err := h.engine.CreateBooking(ctx, child.ID, input.Body.WorkshopID, models.BookingStatus(input.Body.Status))
	if err != nil {
		return nil, bookingError(err)
	}

	if loaded, err := h.store.FindBooking(ctx, booking.ID); err == nil {
		booking = loaded
	} else {
		log.Printf("Failed to reload booking %d: %v", booking.ID, err)
	}

	res := &CreateBookingOutput{Status: http.StatusCreated, Body: newBookingResponse(*booking)}
	if booking.Status == models.BookingWaitlist {
		res.Status = http.StatusOK
	}
	return res, nil
}

type GetBookingInput struct {
	auth.AuthInput
	ID uint `path:"id" doc:"Booking ID"`
}

func (h *BookingHandler) HandleGet(ctx context.Context, input *GetBookingInput) (*BookingOutput, error) {
	parentID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	booking, err := h.ownedBooking(ctx, input.ID, parentID)
	if err != nil {
		return nil, err
	}
	return &BookingOutput{Body: newBookingResponse(*booking)}, nil
}

// ownedBooking loads a booking with its child and workshop and checks that the
// child belongs to parentID.
func (h *BookingHandler) ownedBooking(ctx context.Context, id, parentID uint) (*models.Booking, error) {
	booking, err := h.store.FindBooking(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("Booking not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load booking")
	}
	if booking.Child == nil || booking.Child.ParentID != parentID {
		return nil, huma.Error403Forbidden("You can only access your own bookings")
	}
	return booking, nil
}

type CancelBookingInput struct {
	auth.AuthInput
	ID uint `path:"id" doc:"Booking ID"`
}

type BookingOutput struct {
	Body BookingResponse
}

func (h *BookingHandler) HandleCancel(ctx context.Context, input *CancelBookingInput) (*BookingOutput, error) {
	parentID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	booking, err := h.ownedBooking(ctx, input.ID, parentID)
	if err != nil {
		return nil, err
	}

	cancelled, err := h.engine.CancelBooking(ctx, booking.ID)
	if err != nil {
		return nil, bookingError(err)
	}
	booking.Status = cancelled.Status
	booking.UpdatedAt = cancelled.UpdatedAt
	return &BookingOutput{Body: newBookingResponse(*booking)}, nil
}

type ListBookingsInput struct {
	auth.AuthInput
	ChildID    uint `query:"child_id" doc:"Only bookings of this child"`
	WorkshopID uint `query:"workshop_id" doc:"Only bookings for this workshop"`
}

type ListBookingsOutput struct {
	Body []BookingResponse
}

func (h *BookingHandler) HandleList(ctx context.Context, input *ListBookingsInput) (*ListBookingsOutput, error) {
	parentID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	bookings, err := h.store.ListBookings(ctx, store.BookingFilter{
		ParentID:   parentID,
		ChildID:    input.ChildID,
		WorkshopID: input.WorkshopID,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list bookings")
	}

	res := &ListBookingsOutput{Body: make([]BookingResponse, 0, len(bookings))}
	for _, b := range bookings {
		res.Body = append(res.Body, newBookingResponse(b))
	}
	return res, nil
}

// bookingError maps admission errors onto HTTP statuses.
func bookingError(err error) error {
	var ageErr *admission.AgeRangeError
	switch {
	case errors.As(err, &ageErr):
		return huma.Error409Conflict(ageErr.Error())
	case errors.Is(err, admission.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, admission.ErrOverlap):
		return huma.Error409Conflict(admission.ErrOverlap.Error())
	case errors.Is(err, admission.ErrConflict):
		return huma.Error409Conflict(admission.ErrConflict.Error())
	case errors.Is(err, admission.ErrInvalidStatus):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, admission.ErrTransient):
		log.Printf("Booking gave up after retries: %v", err)
		return huma.Error503ServiceUnavailable("The booking service is busy, please retry")
	default:
		log.Printf("Booking failed: %v", err)
		return huma.Error500InternalServerError("Failed to process booking")
	}
}
