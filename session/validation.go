package session

import (
	"net/mail"
	"strings"

	"github.com/quantfold/tradekit/internal/apierrors"
)

// ValidateEmail checks email against a standard address-format check. A
// failing address never reaches the network.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apierrors.Wrapf(apierrors.ErrValidation, "email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierrors.Wrapf(apierrors.ErrValidation, "invalid email format")
	}

	// Accounts live on real domains; "user@localhost" is not one.
	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") {
		return apierrors.Wrapf(apierrors.ErrValidation, "email domain is incomplete")
	}
	return nil
}
