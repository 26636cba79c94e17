package resource

import (
	"github.com/goliatone/go-auth-state/signin"
	"github.com/tidwall/gjson"
)

// ParseSecondFactor projects one factor descriptor. Unknown strategies are
// kept as signin.UnknownFactor with the raw descriptor.
func ParseSecondFactor(data []byte) (signin.SecondFactor, error) {
	res, err := parseObject(data, "second_factor")
	if err != nil {
		return nil, err
	}
	return projectFactor(res), nil
}

// ParseSecondFactors projects a JSON array of factor descriptors. Entries
// that are not objects are skipped.
func ParseSecondFactors(data []byte) ([]signin.SecondFactor, error) {
	if !gjson.ValidBytes(data) {
		return nil, invalidPayload("second_factors", "invalid json")
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, invalidPayload("second_factors", "not an array")
	}
	return projectFactors(res), nil
}

func projectFactors(res gjson.Result) []signin.SecondFactor {
	factors := make([]signin.SecondFactor, 0)
	res.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			factors = append(factors, projectFactor(item))
		}
		return true
	})
	return factors
}

func projectFactor(res gjson.Result) signin.SecondFactor {
	strategy := res.Get("strategy").String()

	switch signin.Strategy(strategy) {
	case signin.StrategyPhoneCode:
		return signin.PhoneCodeFactor{
			PhoneNumberID:  res.Get("phone_number_id").String(),
			SafeIdentifier: res.Get("safe_identifier").String(),
			Default:        res.Get("default").Bool(),
		}
	case signin.StrategyTOTP:
		return signin.TOTPFactor{}
	case signin.StrategyBackupCode:
		return signin.BackupCodeFactor{}
	default:
		return signin.UnknownFactor{Name: strategy, Raw: res.Raw}
	}
}
