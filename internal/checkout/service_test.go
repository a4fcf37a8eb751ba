package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamika-fc/backend/internal/models"
)

func TestBuildSessionParams(t *testing.T) {
	reg := &models.Registration{
		ID:        uuid.New(),
		FirstName: "Ama",
		LastName:  "Owusu",
	}

	params := BuildSessionParams(reg, "http://localhost:5173/dashboard?success=true", "http://localhost:5173/register?canceled=true")

	assert.Equal(t, "subscription", *params.Mode)
	require.Len(t, params.PaymentMethodTypes, 1)
	assert.Equal(t, "card", *params.PaymentMethodTypes[0])

	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(1), *item.Quantity)

	require.NotNil(t, item.PriceData)
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, int64(5000), *item.PriceData.UnitAmount)
	require.NotNil(t, item.PriceData.Recurring)
	assert.Equal(t, "month", *item.PriceData.Recurring.Interval)
	require.NotNil(t, item.PriceData.ProductData)
	assert.Equal(t, MembershipProductName, *item.PriceData.ProductData.Name)
	assert.Contains(t, *item.PriceData.ProductData.Description, "Ama Owusu")

	assert.Equal(t, "http://localhost:5173/dashboard?success=true", *params.SuccessURL)
	assert.Equal(t, "http://localhost:5173/register?canceled=true", *params.CancelURL)

	// the registration id is the only correlation settlement gets back
	assert.Equal(t, reg.ID.String(), *params.ClientReferenceID)
	require.NotNil(t, params.Metadata)
	assert.Equal(t, reg.ID.String(), params.Metadata["registration_id"])
}

func TestBuildSessionParamsPerRegistration(t *testing.T) {
	a := &models.Registration{ID: uuid.New(), FirstName: "Ama", LastName: "Owusu"}
	b := &models.Registration{ID: uuid.New(), FirstName: "Kofi", LastName: "Owusu"}

	pa := BuildSessionParams(a, "s", "c")
	pb := BuildSessionParams(b, "s", "c")

	assert.NotEqual(t, *pa.ClientReferenceID, *pb.ClientReferenceID)
	assert.NotEqual(t, *pa.LineItems[0].PriceData.ProductData.Description, *pb.LineItems[0].PriceData.ProductData.Description)
}
