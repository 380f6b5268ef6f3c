package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
)

// ErrorMessage extracts a user-facing message from a provider error. Unknown
// price identifiers get a more actionable message than the SDK default.
func ErrorMessage(err error, priceID string) string {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err.Error()
	}

	if stripeErr.Type == stripe.ErrorTypeInvalidRequest &&
		(stripeErr.Code == stripe.ErrorCodeResourceMissing || strings.Contains(stripeErr.Msg, "No such price")) &&
		priceID != "" {
		return fmt.Sprintf("Price ID %q does not exist at the payment provider. Create the price in the provider dashboard first.", priceID)
	}

	if stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

// ErrorDetail returns diagnostic fields for a provider error. Intended for
// non-production responses only.
func ErrorDetail(err error) map[string]any {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return nil
	}
	return map[string]any{
		"type": stripeErr.Type,
		"code": stripeErr.Code,
		"msg":  stripeErr.Msg,
	}
}
