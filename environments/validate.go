package environments

import (
	"fmt"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

// Validate checks the credentials needed before any Cloud API call. A token
// shorter than MinTokenLength is reported as malformed.
func (c WhatsAppConfig) Validate() error {
	var problems []string

	if c.Token == "" {
		problems = append(problems, "WHATSAPP_PERMANENT_TOKEN environment variable is missing")
	} else if c.MinTokenLength > 0 && len(c.Token) < c.MinTokenLength {
		problems = append(problems, "Invalid or malformed access token")
	}

	if c.PhoneNumberID == "" {
		problems = append(problems, "WHATSAPP_PHONE_NUMBER_ID environment variable is missing")
	}

	if c.APIVersion == "" {
		problems = append(problems, "WHATSAPP_API_VERSION must not be empty")
	}

	if len(problems) > 0 {
		return &domain.ConfigurationError{Problems: problems}
	}
	return nil
}

// ValidateBusinessAccount is required only by the template and account checks.
func (c WhatsAppConfig) ValidateBusinessAccount() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BusinessAccountID == "" {
		return &domain.ConfigurationError{
			Problems: []string{"WHATSAPP_BUSINESS_ACCOUNT_ID environment variable is missing"},
		}
	}
	return nil
}

func (c MapsConfig) Validate() error {
	if c.APIKey == "" {
		return &domain.ConfigurationError{
			Problems: []string{"GOOGLE_MAPS_API_KEY environment variable is missing"},
		}
	}
	if c.PrimaryLanguage == "" {
		return &domain.ConfigurationError{
			Problems: []string{fmt.Sprintf("GEOCODE_PRIMARY_LANGUAGE must not be empty (fallback %q)", c.FallbackLanguage)},
		}
	}
	return nil
}
