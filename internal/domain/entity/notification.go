package entity

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationNewApplication      NotificationType = "new_application"
	NotificationApplicationApproved NotificationType = "application_approved"
	NotificationApplicationRejected NotificationType = "application_rejected"
	NotificationReceiptConfirmed    NotificationType = "receipt_confirmed"
	NotificationPaymentCompleted    NotificationType = "payment_completed"
)

type Notification struct {
	ID            string           `bson:"_id,omitempty" json:"id"`
	UserUUID      string           `bson:"user_uuid" json:"user_uuid"`
	Type          NotificationType `bson:"type" json:"type"`
	Title         string           `bson:"title" json:"title"`
	Message       string           `bson:"message" json:"message"`
	ListingID     string           `bson:"listing_id,omitempty" json:"listing_id,omitempty"`
	ApplicationID string           `bson:"application_id,omitempty" json:"application_id,omitempty"`
	Read          bool             `bson:"read" json:"read"`
	CreatedAt     time.Time        `bson:"created_at" json:"created_at"`
}

// NotificationContext carries what the wording of a notification depends on.
type NotificationContext struct {
	ListingTitle string
	// ForOwner selects the owner wording of payment_completed.
	ForOwner bool
}

// NewNotification builds an unread notification with the standard title and message for typ.
func NewNotification(userUUID string, typ NotificationType, listingID, applicationID string, nc NotificationContext) *Notification {
	title, message := notificationText(typ, nc)
	return &Notification{
		UserUUID:      userUUID,
		Type:          typ,
		Title:         title,
		Message:       message,
		ListingID:     listingID,
		ApplicationID: applicationID,
		CreatedAt:     time.Now().UTC(),
	}
}

func notificationText(typ NotificationType, nc NotificationContext) (string, string) {
	item := nc.ListingTitle
	if item == "" {
		item = "your listing"
	}
	switch typ {
	case NotificationNewApplication:
		return "New Application", fmt.Sprintf("Someone applied to rent \"%s\". Review their application now.", item)
	case NotificationApplicationApproved:
		return "Application Approved!", fmt.Sprintf("Your application for \"%s\" has been approved. Pick up the item and confirm receipt to complete the rental.", item)
	case NotificationApplicationRejected:
		return "Application Not Selected", fmt.Sprintf("Your application for \"%s\" was not selected. The owner chose another applicant.", item)
	case NotificationReceiptConfirmed:
		return "Item Picked Up", fmt.Sprintf("The renter has confirmed receipt of \"%s\" and is completing payment.", item)
	case NotificationPaymentCompleted:
		if nc.ForOwner {
			return "Payment Complete", fmt.Sprintf("Payment received for \"%s\". The rental is now active.", item)
		}
		return "Payment Complete", fmt.Sprintf("Your payment for \"%s\" is complete. Enjoy your rental!", item)
	default:
		return "Notification", ""
	}
}
