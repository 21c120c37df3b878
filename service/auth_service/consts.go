package auth_service

// Audience separates staff tokens from client cabinet tokens
type Audience string

const (
	AudienceAdmin  Audience = "admin.vtindex"
	AudienceClient Audience = "client.vtindex"
)

func (a Audience) String() string {
	return string(a)
}

// Scopes carried in access tokens
const (
	ScopeAdminAll  = "admin:*"
	ScopeClientAll = "client:*"
)

func IsValidAudience(aud string) bool {
	switch aud {
	case AudienceAdmin.String(), AudienceClient.String():
		return true
	default:
		return false
	}
}
