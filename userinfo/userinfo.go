// Package userinfo decodes the provider's OIDC userinfo response into the
// SDK's domain record. Decoding maps the provider's claim URIs and the
// standard OIDC profile claims to typed fields; every claim, modeled or not,
// is also retained in Raw so that unmodeled claims survive a round trip.
package userinfo

import (
	"github.com/pkg/errors"
)

// Provider-specific claim URIs.
const (
	ClaimIsVerified        = "https://authd.io/claims/user/is_verified"
	ClaimIsAnonymous       = "https://authd.io/claims/user/is_anonymous"
	ClaimCanReauthenticate = "https://authd.io/claims/user/can_reauthenticate"
	ClaimRoles             = "https://authd.io/claims/user/roles"
	ClaimCustomAttributes  = "custom_attributes"
)

// Address is the decoded form of the standard OIDC "address" claim.
type Address struct {
	Formatted     *string
	StreetAddress *string
	Locality      *string
	Region        *string
	PostalCode    *string
	Country       *string
}

// UserInfo is an immutable snapshot of a provider userinfo response.
// Optional claims are pointers so that "claim absent" stays distinguishable
// from "claim present but empty". Raw holds the original claim map unchanged.
type UserInfo struct {
	Sub               string
	IsVerified        bool
	IsAnonymous       bool
	CanReauthenticate bool
	Roles             []string

	Email               *string
	EmailVerified       *bool
	PhoneNumber         *string
	PhoneNumberVerified *bool
	PreferredUsername   *string
	FamilyName          *string
	GivenName           *string
	MiddleName          *string
	Name                *string
	Nickname            *string
	Picture             *string
	Profile             *string
	Website             *string
	Gender              *string
	Birthdate           *string
	Zoneinfo            *string
	Locale              *string
	Address             *Address

	CustomAttributes map[string]any
	Raw              map[string]any
}

// Decode converts a raw userinfo claim map into a UserInfo. It is total for
// optional claims: missing booleans default to false, a missing roles claim
// defaults to an empty slice, and unknown claims are preserved inside Raw.
// Only a missing (or non-string) mandatory "sub" claim is an error.
func Decode(raw map[string]any) (*UserInfo, error) {
	sub, ok := raw["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("[userinfo.Decode] missing mandatory claim: sub")
	}

	info := &UserInfo{
		Sub:               sub,
		IsVerified:        boolClaim(raw, ClaimIsVerified),
		IsAnonymous:       boolClaim(raw, ClaimIsAnonymous),
		CanReauthenticate: boolClaim(raw, ClaimCanReauthenticate),
		Roles:             stringSliceClaim(raw, ClaimRoles),

		Email:               stringClaim(raw, "email"),
		EmailVerified:       optionalBoolClaim(raw, "email_verified"),
		PhoneNumber:         stringClaim(raw, "phone_number"),
		PhoneNumberVerified: optionalBoolClaim(raw, "phone_number_verified"),
		PreferredUsername:   stringClaim(raw, "preferred_username"),
		FamilyName:          stringClaim(raw, "family_name"),
		GivenName:           stringClaim(raw, "given_name"),
		MiddleName:          stringClaim(raw, "middle_name"),
		Name:                stringClaim(raw, "name"),
		Nickname:            stringClaim(raw, "nickname"),
		Picture:             stringClaim(raw, "picture"),
		Profile:             stringClaim(raw, "profile"),
		Website:             stringClaim(raw, "website"),
		Gender:              stringClaim(raw, "gender"),
		Birthdate:           stringClaim(raw, "birthdate"),
		Zoneinfo:            stringClaim(raw, "zoneinfo"),
		Locale:              stringClaim(raw, "locale"),

		Raw: raw,
	}

	if addr, ok := raw["address"].(map[string]any); ok {
		info.Address = &Address{
			Formatted:     stringClaim(addr, "formatted"),
			StreetAddress: stringClaim(addr, "street_address"),
			Locality:      stringClaim(addr, "locality"),
			Region:        stringClaim(addr, "region"),
			PostalCode:    stringClaim(addr, "postal_code"),
			Country:       stringClaim(addr, "country"),
		}
	}

	if custom, ok := raw[ClaimCustomAttributes].(map[string]any); ok {
		info.CustomAttributes = custom
	} else {
		info.CustomAttributes = map[string]any{}
	}

	return info, nil
}

func boolClaim(raw map[string]any, key string) bool {
	v, _ := raw[key].(bool)
	return v
}

func optionalBoolClaim(raw map[string]any, key string) *bool {
	if v, ok := raw[key].(bool); ok {
		return &v
	}
	return nil
}

func stringClaim(raw map[string]any, key string) *string {
	if v, ok := raw[key].(string); ok {
		return &v
	}
	return nil
}

func stringSliceClaim(raw map[string]any, key string) []string {
	out := make([]string, 0)
	items, ok := raw[key].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
