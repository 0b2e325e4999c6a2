package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressEquality(t *testing.T) {
	a := NewAddress("Lviv", "Ukraine", "79000")
	b := NewAddress("Lviv", "Ukraine", "79000")
	c := NewAddress("Kyiv", "Ukraine", "01001")

	assert.True(t, a.Equal(b), "addresses with identical fields must be equal")
	assert.False(t, a.Equal(c))
}

func TestAddressPrimitiveRoundTrip(t *testing.T) {
	a := NewAddress("Warsaw", "PL", "00-001")

	restored, err := AddressFromPrimitive(a.ToPrimitive())
	require.NoError(t, err)
	assert.True(t, a.Equal(restored))
}

func TestAddressFromPrimitiveMissingFields(t *testing.T) {
	city := "Lviv"
	country := "Ukraine"
	zipCode := "79000"

	testCases := []struct {
		name      string
		primitive AddressPrimitive
		wantField string
	}{
		{
			name:      "missing city",
			primitive: AddressPrimitive{Country: &country, ZipCode: &zipCode},
			wantField: "city",
		},
		{
			name:      "missing country",
			primitive: AddressPrimitive{City: &city, ZipCode: &zipCode},
			wantField: "country",
		},
		{
			name:      "missing zip_code",
			primitive: AddressPrimitive{City: &city, Country: &country},
			wantField: "zip_code",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AddressFromPrimitive(tc.primitive)

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.wantField, missing.Field)
		})
	}
}

func TestAddressEmptyFieldsAllowed(t *testing.T) {
	// Presence is what the contract checks, not content.
	empty := ""
	_, err := AddressFromPrimitive(AddressPrimitive{City: &empty, Country: &empty, ZipCode: &empty})
	assert.NoError(t, err)
}
