package handlers

import (
	"context"

	"github.com/gdg-garage/workshop-booking-api/internal/admission"
)

type WorkshopHandler struct {
	engine *admission.Engine
}

func NewWorkshopHandler(engine *admission.Engine) *WorkshopHandler {
	return &WorkshopHandler{engine: engine}
}

type AvailabilityInput struct {
	ID uint `path:"id" doc:"Workshop ID"`
}

type AvailabilityOutput struct {
	Body *admission.Availability
}

func (h *WorkshopHandler) HandleAvailability(ctx context.Context, input *AvailabilityInput) (*AvailabilityOutput, error) {
	a, err := h.engine.Availability(ctx, input.ID)
	if err != nil {
		return nil, bookingError(err)
	}
	return &AvailabilityOutput{Body: a}, nil
}
