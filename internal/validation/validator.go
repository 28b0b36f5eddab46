package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// M-Pesa payments quote the transaction code at checkout.
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	if req.PaymentMethod == "mpesa" && req.PaymentCode == "" {
		sl.ReportError(req.PaymentCode, "payment_code", "PaymentCode", "required_for_mpesa", "")
	}
}
