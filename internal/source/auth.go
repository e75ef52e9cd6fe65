package source

import (
	"errors"
	"fmt"
)

// AuthType selects how the client authenticates against SendGrid.
type AuthType string

const (
	AuthAPI   AuthType = "api"
	AuthBasic AuthType = "basic"
)

// ErrUnsupportedAuthType is returned for any discriminator other than api or basic.
var ErrUnsupportedAuthType = errors.New("authentication type is not supported")

// ParseAuthType maps the authType property onto an AuthType. There is no default.
func ParseAuthType(s string) (AuthType, error) {
	switch AuthType(s) {
	case AuthAPI, AuthBasic:
		return AuthType(s), nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedAuthType, s)
	}
}

// Credentials is the auth material for the selected mode.
type Credentials struct {
	Type     AuthType
	APIKey   string
	Username string
	Password string
}

// Complete reports whether every value the mode needs is present.
func (c Credentials) Complete() bool {
	switch c.Type {
	case AuthAPI:
		return c.APIKey != ""
	case AuthBasic:
		return c.Username != "" && c.Password != ""
	default:
		return false
	}
}

// Properties returns the property keys that carry the credentials of the mode.
func (c Credentials) Properties() []string {
	switch c.Type {
	case AuthAPI:
		return []string{PropertySendGridAPIKey}
	case AuthBasic:
		return []string{PropertyAuthUsername, PropertyAuthPassword}
	default:
		return []string{PropertyAuthType}
	}
}
