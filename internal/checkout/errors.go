package checkout

import "errors"

const (
	MsgEmptyCart    = "Cart is empty!"
	MsgBlankAddress = "Please enter your address"
	MsgOrderFailed  = "Order failed."
)

var (
	ErrInvalidTransition  = errors.New("invalid checkout transition")
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)

// EmptyCartError blocks Buy Now on a cart with no lines.
type EmptyCartError struct{}

func (EmptyCartError) Error() string { return MsgEmptyCart }

// BlankAddressError blocks submission when the trimmed address is empty.
type BlankAddressError struct{}

func (BlankAddressError) Error() string { return MsgBlankAddress }

// GatewayError is returned when the order gateway could not be reached or
// did not confirm the order. Its message is always the generic one shown to
// the user; Err keeps the cause for logs.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return MsgOrderFailed }

func (e *GatewayError) Unwrap() error { return e.Err }
