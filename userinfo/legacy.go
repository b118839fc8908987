package userinfo

import (
	"time"

	"github.com/pkg/errors"
)

// LegacyUser is the pre-OIDC user object some provider deployments still
// return alongside userinfo. It both travels the wire and is persisted, so
// it carries a symmetric encode/decode pair.
type LegacyUser struct {
	ID                 string
	CreatedAt          time.Time
	LastLoginAt        time.Time
	IsVerified         bool
	IsManuallyVerified bool
	IsDisabled         bool
	IsAnonymous        bool
	Metadata           map[string]any
}

// DecodeLegacyUser converts the wire (snake_case) form into a LegacyUser.
func DecodeLegacyUser(raw map[string]any) (*LegacyUser, error) {
	id, ok := raw["id"].(string)
	if !ok || id == "" {
		return nil, errors.New("[DecodeLegacyUser] missing mandatory field: id")
	}

	createdAt, err := timeField(raw, "created_at")
	if err != nil {
		return nil, err
	}
	lastLoginAt, err := timeField(raw, "last_login_at")
	if err != nil {
		return nil, err
	}

	user := &LegacyUser{
		ID:                 id,
		CreatedAt:          createdAt,
		LastLoginAt:        lastLoginAt,
		IsVerified:         boolClaim(raw, "is_verified"),
		IsManuallyVerified: boolClaim(raw, "is_manually_verified"),
		IsDisabled:         boolClaim(raw, "is_disabled"),
		IsAnonymous:        boolClaim(raw, "is_anonymous"),
	}
	if metadata, ok := raw["metadata"].(map[string]any); ok {
		user.Metadata = metadata
	}
	return user, nil
}

// EncodeLegacyUser converts a LegacyUser back into its wire form.
func EncodeLegacyUser(u *LegacyUser) map[string]any {
	return map[string]any{
		"id":                   u.ID,
		"created_at":           u.CreatedAt.UTC().Format(time.RFC3339Nano),
		"last_login_at":        u.LastLoginAt.UTC().Format(time.RFC3339Nano),
		"is_verified":          u.IsVerified,
		"is_manually_verified": u.IsManuallyVerified,
		"is_disabled":          u.IsDisabled,
		"is_anonymous":         u.IsAnonymous,
		"metadata":             u.Metadata,
	}
}

func timeField(raw map[string]any, key string) (time.Time, error) {
	s, ok := raw[key].(string)
	if !ok {
		return time.Time{}, errors.Errorf("[DecodeLegacyUser] missing mandatory field: %s", key)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "[DecodeLegacyUser] parsing %s", key)
	}
	return t, nil
}
