package auth

import (
	"github.com/pkg/errors"
	"github.com/pquerna/otp/totp"
)

// TOTPKey is a freshly generated authenticator secret
type TOTPKey struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// GenerateTOTP creates a new secret for account under issuer
func GenerateTOTP(issuer, account string) (TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return TOTPKey{}, errors.Wrap(err, "failed to generate TOTP secret")
	}
	return TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// ValidateTOTP checks a 6-digit code against secret, allowing one period of skew
func ValidateTOTP(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
