package record

import (
	"fmt"
	"strings"
	"time"
)

// User is an identity-bearing record with validated fields and one owned
// Address. A User is immutable once constructed; "updating" one means
// building a new one. Every constructor runs the full validation, so any
// *User in circulation is known to be valid.
type User struct {
	id        int64
	email     string
	address   Address
	createdAt time.Time
}

// NewUser creates a user, capturing the current UTC time as the creation
// timestamp. Validation failures return a *ValidationError naming the
// offending field and no User escapes.
func NewUser(id int64, email string, address Address) (*User, error) {
	return NewUserAt(id, email, address, time.Now())
}

// NewUserAt creates a user with an explicit creation timestamp. The
// timestamp is normalized to UTC and truncated to whole seconds, which is
// the precision every transport carries.
func NewUserAt(id int64, email string, address Address, createdAt time.Time) (*User, error) {
	if id < 0 {
		return nil, &ValidationError{Field: "id", Reason: fmt.Sprintf("must be non-negative, got %d", id)}
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	return &User{
		id:        id,
		email:     email,
		address:   address,
		createdAt: createdAt.UTC().Truncate(time.Second),
	}, nil
}

// validateEmail applies the minimal structural check: exactly one '@' and
// at least one '.' somewhere after it. This is deliberately not an RFC
// 5322 parse.
func validateEmail(email string) error {
	if strings.Count(email, "@") != 1 {
		return &ValidationError{Field: "email", Reason: "must contain exactly one '@'"}
	}
	domain := email[strings.IndexByte(email, '@')+1:]
	if !strings.Contains(domain, ".") {
		return &ValidationError{Field: "email", Reason: "must contain a '.' after the '@'"}
	}
	return nil
}

// ID returns the user's identity.
func (u *User) ID() int64 { return u.id }

// Email returns the validated email address.
func (u *User) Email() string { return u.email }

// Address returns the owned address value object.
func (u *User) Address() Address { return u.address }

// CreatedAt returns the UTC creation timestamp, second precision.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// Equal reports structural equality: same id, email, address fields and
// creation timestamp.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.id == other.id &&
		u.email == other.email &&
		u.address.Equal(other.address) &&
		u.createdAt.Equal(other.createdAt)
}

// UserPrimitive is the transport form of a User. The nested address is
// carried under the "value" key. Pointer fields make absent keys
// detectable on decode; unknown keys are ignored by the JSON layer.
type UserPrimitive struct {
	ID        *int64            `json:"id"`
	Email     *string           `json:"email"`
	Value     *AddressPrimitive `json:"value"`
	CreatedAt *string           `json:"created_at"`
}

// ToPrimitive converts the user into its transport form. The timestamp is
// rendered as RFC 3339 UTC, e.g. "2024-01-15T10:00:00Z".
func (u *User) ToPrimitive() UserPrimitive {
	id := u.id
	email := u.email
	value := u.address.ToPrimitive()
	createdAt := u.createdAt.Format(time.RFC3339)
	return UserPrimitive{
		ID:        &id,
		Email:     &email,
		Value:     &value,
		CreatedAt: &createdAt,
	}
}

// UserFromPrimitive reconstructs a User from its transport form,
// reapplying the same validation as direct construction. This is the only
// decode path: a round trip can never produce an invalid User.
func UserFromPrimitive(p UserPrimitive) (*User, error) {
	if p.ID == nil {
		return nil, &MissingFieldError{Field: "id"}
	}
	if p.Email == nil {
		return nil, &MissingFieldError{Field: "email"}
	}
	if p.Value == nil {
		return nil, &MissingFieldError{Field: "value"}
	}
	if p.CreatedAt == nil {
		return nil, &MissingFieldError{Field: "created_at"}
	}

	address, err := AddressFromPrimitive(*p.Value)
	if err != nil {
		return nil, err
	}

	createdAt, err := ParseTimestamp(*p.CreatedAt)
	if err != nil {
		return nil, err
	}

	return NewUserAt(*p.ID, *p.Email, address, createdAt)
}

// ParseTimestamp parses a creation timestamp from its transport form.
// Both "Z" and numeric UTC offsets are accepted; failures surface as a
// ValidationError on created_at.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "created_at", Reason: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}
