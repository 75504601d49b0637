// Package checkout implements the Buy Now / address / submit state machine
// on top of a session's cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
)

type State string

const (
	Idle         State = "idle"
	CartOpen     State = "cart_open"
	AddressEntry State = "address_entry"
	Submitting   State = "submitting"
	Failed       State = "failed"
)

// OrderGateway is the remote order endpoint.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, req entity.OrderRequest) (*entity.GatewayResponse, error)
}

// Flow is not safe for concurrent use. Callers that need the cart to stay
// mutable during a submission drive BeginSubmit and Complete themselves and
// release their lock in between.
type Flow struct {
	cart    *cart.Cart
	state   State
	address string
}

func NewFlow(c *cart.Cart) *Flow {
	return &Flow{cart: c, state: Idle}
}

// Restore rebuilds a flow from stored state. A stored Submitting state comes
// back as Failed: the outcome of that dispatch is unknown here.
func Restore(c *cart.Cart, state State, address string) *Flow {
	switch state {
	case Idle, CartOpen, AddressEntry, Failed:
	case Submitting:
		state = Failed
	default:
		state = Idle
	}
	return &Flow{cart: c, state: state, address: address}
}

func (f *Flow) State() State    { return f.state }
func (f *Flow) Address() string { return f.address }

func (f *Flow) OpenCart() error {
	switch f.state {
	case Idle, Failed, CartOpen:
		f.state = CartOpen
		return nil
	}
	return f.invalid("open cart")
}

func (f *Flow) CloseCart() error {
	switch f.state {
	case CartOpen, Idle:
		f.state = Idle
		return nil
	}
	return f.invalid("close cart")
}

// BuyNow moves to address entry. An empty cart is refused without changing state.
func (f *Flow) BuyNow() error {
	switch f.state {
	case CartOpen, AddressEntry, Failed:
	default:
		return f.invalid("buy now")
	}
	if f.cart.Len() == 0 {
		return EmptyCartError{}
	}
	f.state = AddressEntry
	return nil
}

// SetAddress stores the text as typed; trimming only applies to the submit guard.
func (f *Flow) SetAddress(address string) {
	f.address = address
}

// BeginSubmit validates the address, snapshots the cart into an order
// request and enters Submitting.
func (f *Flow) BeginSubmit(username string) (entity.OrderRequest, error) {
	switch f.state {
	case AddressEntry, Failed:
	case Submitting:
		return entity.OrderRequest{}, ErrSubmissionInFlight
	default:
		return entity.OrderRequest{}, f.invalid("submit order")
	}
	if strings.TrimSpace(f.address) == "" {
		return entity.OrderRequest{}, BlankAddressError{}
	}

	totals := f.cart.Totals()
	req := entity.OrderRequest{
		Username:   username,
		Address:    f.address,
		Items:      f.cart.Lines(),
		Total:      totals.Total,
		GST:        totals.GST,
		GrandTotal: totals.GrandTotal,
	}
	f.state = Submitting
	return req, nil
}

// Complete applies the gateway outcome of the submission started by
// BeginSubmit. On success the cart and address are cleared and the gateway
// message is returned verbatim; anything else leaves them as they are and
// yields a *GatewayError.
func (f *Flow) Complete(resp *entity.GatewayResponse, err error) (string, error) {
	if f.state != Submitting {
		return "", f.invalid("complete order")
	}
	msg, err := Outcome(resp, err)
	if err != nil {
		f.state = Failed
		return "", err
	}

	f.cart.Clear()
	f.address = ""
	f.state = Idle
	return msg, nil
}

// Outcome maps a gateway result to the confirmation message or a
// *GatewayError without touching any flow.
func Outcome(resp *entity.GatewayResponse, err error) (string, error) {
	if err == nil && (resp == nil || !resp.Success) {
		err = rejected(resp)
	}
	if err != nil {
		return "", &GatewayError{Err: err}
	}
	return resp.Message, nil
}

// Submit runs BeginSubmit, the gateway call and Complete in one go.
func (f *Flow) Submit(ctx context.Context, gw OrderGateway, username string) (string, error) {
	req, err := f.BeginSubmit(username)
	if err != nil {
		return "", err
	}
	return f.Complete(gw.SubmitOrder(ctx, req))
}

// Reset drops the address and returns to Idle. The cart is left to its owner.
func (f *Flow) Reset() {
	f.address = ""
	f.state = Idle
}

func (f *Flow) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, f.state)
}

func rejected(resp *entity.GatewayResponse) error {
	if resp == nil {
		return errors.New("gateway returned no body")
	}
	return fmt.Errorf("gateway rejected order: %s", resp.Message)
}
