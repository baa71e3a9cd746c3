package entity

import (
	"fmt"
	"strings"
	"time"
)

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusRented    ListingStatus = "rented"
)

type PriceUnit string

const (
	PriceUnitDay   PriceUnit = "day"
	PriceUnitWeek  PriceUnit = "week"
	PriceUnitMonth PriceUnit = "month"
)

func (u PriceUnit) Valid() bool {
	switch u {
	case PriceUnitDay, PriceUnitWeek, PriceUnitMonth:
		return true
	default:
		return false
	}
}

// Price is expressed in minor currency units per Unit.
type Price struct {
	Amount int64     `bson:"amount" json:"amount"`
	Unit   PriceUnit `bson:"unit" json:"unit"`
}

type Listing struct {
	ID                string        `bson:"_id,omitempty" json:"id"`
	OwnerUUID         string        `bson:"owner_uuid" json:"owner_uuid"`
	Title             string        `bson:"title" json:"title"`
	Description       string        `bson:"description" json:"description"`
	ImageURIs         []string      `bson:"image_uris" json:"image_uris"`
	Price             Price         `bson:"price" json:"price"`
	Status            ListingStatus `bson:"status" json:"status"`
	Active            bool          `bson:"active" json:"active"`
	CurrentTenantUUID *string       `bson:"current_tenant_uuid" json:"current_tenant_uuid"`
	// HeldApplicationID is the application the listing was approved for.
	HeldApplicationID string        `bson:"held_application_id,omitempty" json:"held_application_id,omitempty"`
	CreatedAt         time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at" json:"updated_at"`
	Version           int           `bson:"version" json:"-"`
}

func NewListing(ownerUUID, title, description string, imageURIs []string, price Price) (*Listing, error) {
	if strings.TrimSpace(ownerUUID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	if price.Amount <= 0 {
		return nil, fmt.Errorf("%w: price amount must be positive", ErrInvalidRequest)
	}
	if !price.Unit.Valid() {
		return nil, fmt.Errorf("%w: price unit must be one of day, week, month", ErrInvalidRequest)
	}
	if imageURIs == nil {
		imageURIs = []string{}
	}
	now := time.Now().UTC()
	return &Listing{
		OwnerUUID:   ownerUUID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		ImageURIs:   imageURIs,
		Price:       price,
		Status:      ListingStatusAvailable,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

func (l *Listing) IsOwnedBy(subject string) bool {
	return l.OwnerUUID == subject
}

// TenantIs reports whether the listing is currently held for subject.
func (l *Listing) TenantIs(subject string) bool {
	return l.CurrentTenantUUID != nil && *l.CurrentTenantUUID == subject
}

// IsHeldFor reports whether the listing was approved for applicationID.
func (l *Listing) IsHeldFor(applicationID string) bool {
	return applicationID != "" && l.HeldApplicationID == applicationID
}

// CanApprove reports whether approving applicationID may be applied to the listing.
// Re-approving the application the listing is already pending for is allowed so a
// partially applied approval can be retried; any other application of the same
// applicant is refused.
func (l *Listing) CanApprove(applicationID string) bool {
	switch l.Status {
	case ListingStatusAvailable:
		return true
	case ListingStatusPending:
		return l.IsHeldFor(applicationID)
	default:
		return false
	}
}

// MarkPending holds the listing for one application until payment completes.
func (l *Listing) MarkPending(applicant, applicationID string) {
	tenant := applicant
	l.Status = ListingStatusPending
	l.CurrentTenantUUID = &tenant
	l.HeldApplicationID = applicationID
	l.UpdatedAt = time.Now().UTC()
}

// MarkRented is the terminal listing state: the tenant is set and the listing is no longer bookable.
func (l *Listing) MarkRented(tenant string) {
	t := tenant
	l.Status = ListingStatusRented
	l.Active = false
	l.CurrentTenantUUID = &t
	l.UpdatedAt = time.Now().UTC()
}

func (l *Listing) DisplayTitle() string {
	if l.Title == "" {
		return "Rental Payment"
	}
	return l.Title
}
