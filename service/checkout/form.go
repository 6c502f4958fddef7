package checkout

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	"shophub/core/validation"
)

// Form is the contact and shipping section of the checkout page.
type Form struct {
	FirstName string `form:"firstName" validate:"required"`
	LastName  string `form:"lastName" validate:"required"`
	Email     string `form:"email" validate:"required,email"`
	Phone     string `form:"phone"`
	Address   string `form:"address" validate:"required"`
	City      string `form:"city" validate:"required"`
	ZipCode   string `form:"zipCode" validate:"required"`
}

func (f *Form) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.ZipCode = strings.TrimSpace(f.ZipCode)
}

func (f *Form) Validate() error {
	f.Normalize()
	return validation.Struct(f)
}

func (f Form) CustomerName() string {
	return f.FirstName + " " + f.LastName
}

func (f Form) ShippingAddress() string {
	return f.Address + ", " + f.City + ", " + f.ZipCode
}

// WidgetResult is what the embedded payment widget posts back with the form.
type WidgetResult struct {
	Ready           bool   `mapstructure:"widget_ready"`
	PaymentIntentID string `mapstructure:"payment_intent"`
	RedirectStatus  string `mapstructure:"redirect_status"`
	Error           string `mapstructure:"payment_error"`
}

// Confirmed reports that the widget took the payment. A processing intent
// counts: asynchronous methods settle after the shopper leaves.
func (w WidgetResult) Confirmed() bool {
	if w.Error != "" {
		return false
	}
	return w.RedirectStatus == "succeeded" || w.RedirectStatus == "processing"
}

func (w WidgetResult) Processing() bool {
	return w.Confirmed() && w.RedirectStatus == "processing"
}

// DecodeWidgetResult reads the widget fields from posted form values.
// Flags arrive as "1"/"true".
func DecodeWidgetResult(values map[string][]string) (WidgetResult, error) {
	flat := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	var out WidgetResult
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(flat); err != nil {
		return out, err
	}
	return out, nil
}
