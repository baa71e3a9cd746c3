package service

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
)

const (
	natsSubjectApplicationSubmitted = "rental.application.submitted"
	natsSubjectApplicationApproved  = "rental.application.approved"
	natsSubjectReceiptConfirmed     = "rental.receipt.confirmed"
	natsSubjectPaymentCompleted     = "rental.payment.completed"
	natsSubjectNotificationCreated  = "rental.notification.created"
)

// WorkflowEvent is published on NATS after a workflow transition commits.
type WorkflowEvent struct {
	ListingID              string                   `json:"listing_id"`
	ApplicationID          string                   `json:"application_id"`
	ApplicantUUID          string                   `json:"applicant_uuid,omitempty"`
	OwnerUUID              string                   `json:"owner_uuid,omitempty"`
	Status                 entity.ApplicationStatus `json:"status"`
	RejectedApplicationIDs []string                 `json:"rejected_application_ids,omitempty"`
	Source                 string                   `json:"source,omitempty"`
	OccurredAt             time.Time                `json:"occurred_at"`
}
