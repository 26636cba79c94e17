// Package resource projects raw hosted API payloads into typed records.
//
// Projections are total: optional fields that are missing or null stay nil,
// epoch second timestamps become *time.Time, and nothing is defaulted to a
// value that could be mistaken for real data.
package resource

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/gjson"
)

const textCodeInvalidPayload = "INVALID_RESOURCE_PAYLOAD"

// ErrInvalidPayload is returned when a payload is not a JSON object.
var ErrInvalidPayload = errors.New("resource payload must be a JSON object", errors.CategoryBadInput).
	WithTextCode(textCodeInvalidPayload).
	WithCode(errors.CodeBadRequest)

func parseObject(data []byte, kind string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, invalidPayload(kind, "invalid json")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return gjson.Result{}, invalidPayload(kind, "not an object")
	}
	return res, nil
}

func invalidPayload(kind, reason string) error {
	return ErrInvalidPayload.Clone().WithMetadata(map[string]any{
		"resource": kind,
		"reason":   reason,
	})
}

// unixEpochToTime maps an epoch second value to a UTC time. Null, absent and
// non numeric values yield nil.
func unixEpochToTime(v gjson.Result) *time.Time {
	if v.Type != gjson.Number {
		return nil
	}
	t := time.Unix(v.Int(), 0).UTC()
	return &t
}

func optionalString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}
