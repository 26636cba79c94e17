package resource

import (
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/tidwall/gjson"
)

const verificationVerified = "verified"

// EmailAddress belongs to a User.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verified     bool   `json:"verified"`
}

// PhoneNumber belongs to a User and may be reserved for second factor use.
type PhoneNumber struct {
	ID                      string `json:"id"`
	PhoneNumber             string `json:"phone_number"`
	Verified                bool   `json:"verified"`
	ReservedForSecondFactor bool   `json:"reserved_for_second_factor"`
	DefaultSecondFactor     bool   `json:"default_second_factor"`
}

// International formats the number for display, falling back to the raw
// value when it cannot be parsed.
func (p PhoneNumber) International() string {
	num, err := phonenumbers.Parse(p.PhoneNumber, "")
	if err != nil {
		return p.PhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

// User is the hosted user record.
type User struct {
	ID                    string         `json:"id"`
	Username              *string        `json:"username,omitempty"`
	FirstName             *string        `json:"first_name,omitempty"`
	LastName              *string        `json:"last_name,omitempty"`
	ProfileImageURL       *string        `json:"profile_image_url,omitempty"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id,omitempty"`
	PrimaryPhoneNumberID  *string        `json:"primary_phone_number_id,omitempty"`
	EmailAddresses        []EmailAddress `json:"email_addresses,omitempty"`
	PhoneNumbers          []PhoneNumber  `json:"phone_numbers,omitempty"`
	TwoFactorEnabled      bool           `json:"two_factor_enabled"`
	TOTPEnabled           bool           `json:"totp_enabled"`
	BackupCodeEnabled     bool           `json:"backup_code_enabled"`
	LastSignInAt          *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt             *time.Time     `json:"created_at"`
	UpdatedAt             *time.Time     `json:"updated_at"`
}

// FullName joins first and last names, empty when neither is set.
func (u *User) FullName() string {
	parts := make([]string, 0, 2)
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	return strings.Join(parts, " ")
}

// PrimaryEmailAddress returns the email referenced by PrimaryEmailAddressID.
func (u *User) PrimaryEmailAddress() (EmailAddress, bool) {
	if u.PrimaryEmailAddressID == nil {
		return EmailAddress{}, false
	}
	for _, e := range u.EmailAddresses {
		if e.ID == *u.PrimaryEmailAddressID {
			return e, true
		}
	}
	return EmailAddress{}, false
}

// PrimaryPhoneNumber returns the phone referenced by PrimaryPhoneNumberID.
func (u *User) PrimaryPhoneNumber() (PhoneNumber, bool) {
	if u.PrimaryPhoneNumberID == nil {
		return PhoneNumber{}, false
	}
	for _, p := range u.PhoneNumbers {
		if p.ID == *u.PrimaryPhoneNumberID {
			return p, true
		}
	}
	return PhoneNumber{}, false
}

// ParseUser projects a user payload.
func ParseUser(data []byte) (*User, error) {
	res, err := parseObject(data, "user")
	if err != nil {
		return nil, err
	}
	return projectUser(res), nil
}

func projectUser(res gjson.Result) *User {
	u := &User{
		ID:                    res.Get("id").String(),
		Username:              optionalString(res.Get("username")),
		FirstName:             optionalString(res.Get("first_name")),
		LastName:              optionalString(res.Get("last_name")),
		ProfileImageURL:       optionalString(res.Get("profile_image_url")),
		PrimaryEmailAddressID: optionalString(res.Get("primary_email_address_id")),
		PrimaryPhoneNumberID:  optionalString(res.Get("primary_phone_number_id")),
		TwoFactorEnabled:      res.Get("two_factor_enabled").Bool(),
		TOTPEnabled:           res.Get("totp_enabled").Bool(),
		BackupCodeEnabled:     res.Get("backup_code_enabled").Bool(),
		LastSignInAt:          unixEpochToTime(res.Get("last_sign_in_at")),
		CreatedAt:             unixEpochToTime(res.Get("created_at")),
		UpdatedAt:             unixEpochToTime(res.Get("updated_at")),
	}

	for _, e := range res.Get("email_addresses").Array() {
		u.EmailAddresses = append(u.EmailAddresses, EmailAddress{
			ID:           e.Get("id").String(),
			EmailAddress: e.Get("email_address").String(),
			Verified:     e.Get("verification.status").String() == verificationVerified,
		})
	}

	for _, p := range res.Get("phone_numbers").Array() {
		u.PhoneNumbers = append(u.PhoneNumbers, PhoneNumber{
			ID:                      p.Get("id").String(),
			PhoneNumber:             p.Get("phone_number").String(),
			Verified:                p.Get("verification.status").String() == verificationVerified,
			ReservedForSecondFactor: p.Get("reserved_for_second_factor").Bool(),
			DefaultSecondFactor:     p.Get("default_second_factor").Bool(),
		})
	}

	return u
}
