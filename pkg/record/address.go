package record

// Address is an immutable value object. It has no identity of its own;
// two addresses are equal iff all fields match. All fields are required
// at construction and never change afterwards.
type Address struct {
	city    string
	country string
	zipCode string
}

// NewAddress creates an address from its three required fields.
func NewAddress(city, country, zipCode string) Address {
	return Address{
		city:    city,
		country: country,
		zipCode: zipCode,
	}
}

// City returns the city field.
func (a Address) City() string { return a.city }

// Country returns the country field.
func (a Address) Country() string { return a.country }

// ZipCode returns the postal code field.
func (a Address) ZipCode() string { return a.zipCode }

// Equal reports whether both addresses carry identical fields.
func (a Address) Equal(other Address) bool {
	return a == other
}

// AddressPrimitive is the transport form of an Address. Fields are
// pointers so an absent key can be told apart from an empty value on the
// decode path.
type AddressPrimitive struct {
	City    *string `json:"city"`
	Country *string `json:"country"`
	ZipCode *string `json:"zip_code"`
}

// ToPrimitive converts the address into its transport form. Field order
// follows declaration order.
func (a Address) ToPrimitive() AddressPrimitive {
	city := a.city
	country := a.country
	zipCode := a.zipCode
	return AddressPrimitive{
		City:    &city,
		Country: &country,
		ZipCode: &zipCode,
	}
}

// AddressFromPrimitive reconstructs an Address from its transport form.
// Any absent field fails with a MissingFieldError naming it.
func AddressFromPrimitive(p AddressPrimitive) (Address, error) {
	if p.City == nil {
		return Address{}, &MissingFieldError{Field: "city"}
	}
	if p.Country == nil {
		return Address{}, &MissingFieldError{Field: "country"}
	}
	if p.ZipCode == nil {
		return Address{}, &MissingFieldError{Field: "zip_code"}
	}
	return NewAddress(*p.City, *p.Country, *p.ZipCode), nil
}
