package entity

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusConfirmed ApplicationStatus = "confirmed"
	ApplicationStatusPaid      ApplicationStatus = "paid"
)

var validApplicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:   {ApplicationStatusApproved, ApplicationStatusRejected},
	ApplicationStatusApproved:  {ApplicationStatusConfirmed, ApplicationStatusRejected},
	ApplicationStatusRejected:  {},
	ApplicationStatusConfirmed: {ApplicationStatusPaid},
	ApplicationStatusPaid:      {},
}

var applicationStatusOrder = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
	ApplicationStatusConfirmed,
	ApplicationStatusPaid,
}

// StatusesLeadingTo lists the statuses from which next can be reached, in
// lifecycle order. Storage adapters use it as the guard of conditional writes.
func StatusesLeadingTo(next ApplicationStatus) []ApplicationStatus {
	out := make([]ApplicationStatus, 0, 2)
	for _, from := range applicationStatusOrder {
		for _, to := range validApplicationTransitions[from] {
			if to == next {
				out = append(out, from)
			}
		}
	}
	return out
}

type Application struct {
	ID          string            `bson:"_id,omitempty" json:"id"`
	ListingID   string            `bson:"listing_id" json:"listing_id"`
	UserUUID    string            `bson:"user_uuid" json:"user_uuid"`
	Description string            `bson:"description" json:"description"`
	DaysRenting int               `bson:"days_renting" json:"days_renting"`
	Status      ApplicationStatus `bson:"status" json:"status"`
	ConfirmedAt *time.Time        `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	PaidAt      *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at" json:"updated_at"`
}

// RoundDays validates a requested rental length and rounds it to whole days.
func RoundDays(days float64) (int, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return 0, fmt.Errorf("%w: days_renting must be a positive number", ErrInvalidRequest)
	}
	rounded := int(math.Round(days))
	if rounded < 1 {
		rounded = 1
	}
	return rounded, nil
}

func NewApplication(listingID, userUUID, description string, daysRenting float64) (*Application, error) {
	if strings.TrimSpace(listingID) == "" {
		return nil, fmt.Errorf("%w: listing id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	days, err := RoundDays(daysRenting)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Application{
		ListingID:   listingID,
		UserUUID:    userUUID,
		Description: strings.TrimSpace(description),
		DaysRenting: days,
		Status:      ApplicationStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Application) CanTransitionTo(next ApplicationStatus) bool {
	for _, s := range validApplicationTransitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// UpdateStatus applies next and stamps the matching timestamp. Re-applying the
// current status is a no-op so a retried step converges.
func (a *Application) UpdateStatus(next ApplicationStatus) error {
	if a.Status == next {
		return nil
	}
	if _, ok := validApplicationTransitions[a.Status]; !ok {
		return fmt.Errorf("cannot transition from unknown status %s", a.Status)
	}
	if !a.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition from %s to %s", a.Status, next)
	}
	now := time.Now().UTC()
	switch next {
	case ApplicationStatusConfirmed:
		a.ConfirmedAt = &now
	case ApplicationStatusPaid:
		a.PaidAt = &now
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

// Quantity is the number of price units billed for this application.
func (a *Application) Quantity() int64 {
	if a.DaysRenting < 1 {
		return 1
	}
	return int64(a.DaysRenting)
}
