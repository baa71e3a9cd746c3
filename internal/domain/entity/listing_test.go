package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing(t *testing.T) {
	l, err := NewListing("owner", " Kayak ", "two seats", nil, Price{Amount: 2500, Unit: PriceUnitWeek})
	require.NoError(t, err)
	assert.Equal(t, "Kayak", l.Title)
	assert.Equal(t, ListingStatusAvailable, l.Status)
	assert.True(t, l.Active)
	assert.NotNil(t, l.ImageURIs)
	assert.Nil(t, l.CurrentTenantUUID)

	bad := []struct {
		name  string
		owner string
		title string
		price Price
	}{
		{"no owner", "", "Kayak", Price{Amount: 1, Unit: PriceUnitDay}},
		{"no title", "owner", " ", Price{Amount: 1, Unit: PriceUnitDay}},
		{"zero price", "owner", "Kayak", Price{Amount: 0, Unit: PriceUnitDay}},
		{"bad unit", "owner", "Kayak", Price{Amount: 1, Unit: "year"}},
	}
	for _, tc := range bad {
		_, err := NewListing(tc.owner, tc.title, "desc", nil, tc.price)
		assert.ErrorIs(t, err, ErrInvalidRequest, tc.name)
	}
}

func TestListing_Lifecycle(t *testing.T) {
	l, err := NewListing("owner", "Kayak", "two seats", nil, Price{Amount: 2500, Unit: PriceUnitDay})
	require.NoError(t, err)

	assert.True(t, l.CanApprove("app-1"))
	l.MarkPending("alice", "app-1")
	assert.Equal(t, ListingStatusPending, l.Status)
	assert.True(t, l.TenantIs("alice"))
	assert.True(t, l.IsHeldFor("app-1"))
	assert.True(t, l.CanApprove("app-1"))
	assert.False(t, l.CanApprove("app-2"))
	assert.False(t, l.CanApprove(""))

	l.MarkRented("alice")
	assert.Equal(t, ListingStatusRented, l.Status)
	assert.False(t, l.Active)
	assert.True(t, l.TenantIs("alice"))
	assert.True(t, l.IsHeldFor("app-1"))
	assert.False(t, l.CanApprove("app-1"))
}

func TestListing_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Rental Payment", (&Listing{}).DisplayTitle())
	assert.Equal(t, "Kayak", (&Listing{Title: "Kayak"}).DisplayTitle())
}
