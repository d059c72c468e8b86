package order

// Validator checks structural completeness of a placement request before
// any side effect is attempted.
type Validator interface {
	Validate(req Request) error
}

var _ Validator = RequestValidator{}

// RequestValidator is the standard Validator: it requires a customer
// reference, a shipping address, card details, and at least one item.
// It is a pure function of its input.
type RequestValidator struct{}

// NewRequestValidator returns the standard request validator.
func NewRequestValidator() RequestValidator {
	return RequestValidator{}
}

// Validate returns nil for a complete request, or a *ValidationError
// listing every missing field.
func (RequestValidator) Validate(req Request) error {
	var missing []string

	if req.Customer.ID == "" {
		missing = append(missing, "customer")
	}
	if (req.Address == Address{}) {
		missing = append(missing, "address")
	}
	if req.Card.Number == "" {
		missing = append(missing, "card")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
