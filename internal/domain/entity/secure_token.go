package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const secureTokenBytes = 32

// SecureToken is a single-use capability authorising the completion of one payment flow.
type SecureToken struct {
	ID            string    `bson:"_id"`
	ApplicantUUID string    `bson:"applicant_uuid"`
	ListingID     string    `bson:"listing_id"`
	ApplicationID string    `bson:"application_id"`
	CreatedAt     time.Time `bson:"created_at"`
}

// TokenMatch is the correlation a completion caller supplies alongside a token.
// An empty ApplicantUUID matches any stored applicant.
type TokenMatch struct {
	ListingID     string
	ApplicationID string
	ApplicantUUID string
}

func (t *SecureToken) Matches(m TokenMatch) bool {
	if t.ListingID != m.ListingID || t.ApplicationID != m.ApplicationID {
		return false
	}
	return m.ApplicantUUID == "" || t.ApplicantUUID == m.ApplicantUUID
}

// NewSecureToken mints a token with 64 hex characters of randomness.
func NewSecureToken(applicantUUID, listingID, applicationID string) (*SecureToken, error) {
	buf := make([]byte, secureTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: generate secure token: %v", ErrInternal, err)
	}
	return &SecureToken{
		ID:            hex.EncodeToString(buf),
		ApplicantUUID: applicantUUID,
		ListingID:     listingID,
		ApplicationID: applicationID,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
