package events

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/screening"
)

// ScreeningRequest is a profile plus options decoded from a loosely typed message
type ScreeningRequest struct {
	Profile domain.ClientProfile
	Options screening.ScreenOptions
}

// first returns the first non-empty string value among keys
func first(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// mapScreeningRequest accepts both snake_case and camelCase producers. The
// profile may be nested under "profile" or sent at the top level.
func mapScreeningRequest(raw map[string]any) ScreeningRequest {
	body := raw
	if nested, err := cast.ToStringMapE(raw["profile"]); err == nil && len(nested) > 0 {
		body = nested
	}

	req := ScreeningRequest{
		Profile: domain.ClientProfile{
			FirstName:    first(body, "first_name", "firstName"),
			LastName:     first(body, "last_name", "lastName"),
			FullName:     first(body, "full_name", "fullName", "name"),
			CompanyName:  first(body, "company_name", "companyName"),
			BusinessName: first(body, "business_name", "businessName"),
			Country:      first(body, "country", "nationality"),
			DateOfBirth:  first(body, "date_of_birth", "dateOfBirth", "dob"),
			ExternalID:   first(raw, "external_id", "externalId", "client_id", "clientId", "id"),
		},
	}
	if req.Profile.ExternalID == "" {
		req.Profile.ExternalID = first(body, "external_id", "externalId", "client_id", "clientId", "id")
	}

	for _, a := range cast.ToSlice(body["aliases"]) {
		switch v := a.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				req.Profile.Aliases = append(req.Profile.Aliases, domain.ProfileAlias{Name: v})
			}
		default:
			m := cast.ToStringMap(v)
			alias := domain.ProfileAlias{
				Name:     first(m, "name"),
				FullName: first(m, "full_name", "fullName"),
			}
			if alias.Name != "" || alias.FullName != "" {
				req.Profile.Aliases = append(req.Profile.Aliases, alias)
			}
		}
	}

	opts := cast.ToStringMap(raw["options"])
	if v, ok := opts["threshold"]; ok {
		req.Options.Threshold = cast.ToFloat64(v)
	}
	if v, ok := opts["max_results"]; ok {
		req.Options.MaxResults = cast.ToInt(v)
	}
	if v, ok := opts["include_aliases"]; ok {
		include := cast.ToBool(v)
		req.Options.IncludeAliases = &include
	}

	return req
}
