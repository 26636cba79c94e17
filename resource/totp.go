package resource

import "time"

// TOTP is an authenticator app credential. Secret and URI are only returned
// right after creation.
type TOTP struct {
	ID        string     `json:"id"`
	Secret    *string    `json:"secret,omitempty"`
	URI       *string    `json:"uri,omitempty"`
	Verified  bool       `json:"verified"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ParseTOTP projects a TOTP payload.
func ParseTOTP(data []byte) (*TOTP, error) {
	res, err := parseObject(data, "totp")
	if err != nil {
		return nil, err
	}

	return &TOTP{
		ID:        res.Get("id").String(),
		Secret:    optionalString(res.Get("secret")),
		URI:       optionalString(res.Get("uri")),
		Verified:  res.Get("verified").Bool(),
		CreatedAt: unixEpochToTime(res.Get("created_at")),
		UpdatedAt: unixEpochToTime(res.Get("updated_at")),
	}, nil
}
