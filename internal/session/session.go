// Package session owns the per-login state: one cart, one checkout flow and
// the username they belong to. Sessions share nothing with each other.
package session

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
)

type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time

	mu      sync.Mutex
	cart    *cart.Cart
	flow    *checkout.Flow
	touched time.Time
	closed  bool
}

// Snapshot is the stored form of a session.
type Snapshot struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Lines     []entity.Product `json:"lines"`
	Address   string           `json:"address"`
	State     checkout.State   `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	TouchedAt time.Time        `json:"touchedAt"`
}

// View is what the API renders for a session.
type View struct {
	Username string           `json:"username"`
	Items    []entity.Product `json:"items"`
	Count    int              `json:"count"`
	Totals   cart.Totals      `json:"totals"`
	State    checkout.State   `json:"state"`
	Address  string           `json:"address"`
}

// Submission is an order request that reached the gateway, with the message
// the gateway confirmed it with. Closed is set when the session was logged
// out while the request was in flight.
type Submission struct {
	Request entity.OrderRequest
	Message string
	Closed  bool
}

func newSession(id, username string, now time.Time) *Session {
	c := cart.New()
	return &Session{
		ID:        id,
		Username:  username,
		CreatedAt: now,
		cart:      c,
		flow:      checkout.NewFlow(c),
		touched:   now,
	}
}

func fromSnapshot(snap *Snapshot, now time.Time) *Session {
	c := cart.FromLines(snap.Lines)
	return &Session{
		ID:        snap.ID,
		Username:  snap.Username,
		CreatedAt: snap.CreatedAt,
		cart:      c,
		flow:      checkout.Restore(c, snap.State, snap.Address),
		touched:   now,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Username:  s.Username,
		Lines:     s.cart.Lines(),
		Address:   s.flow.Address(),
		State:     s.flow.State(),
		CreatedAt: s.CreatedAt,
		TouchedAt: s.touched,
	}
}

// Closed reports whether the session was logged out or expired.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// saveTo writes the snapshot while holding the session lock, so saves of one
// session reach the store in mutation order. A closed session is not written.
func (s *Session) saveTo(ctx context.Context, store Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return store.Save(ctx, s.snapshot())
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Username: s.Username,
		Items:    s.cart.Lines(),
		Count:    s.cart.Len(),
		Totals:   s.cart.Totals(),
		State:    s.flow.State(),
		Address:  s.flow.Address(),
	}
}

func (s *Session) AddItem(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(p)
}

// RemoveItem reports whether a line was removed; out of range is not an error.
func (s *Session) RemoveItem(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.RemoveAt(index)
}

func (s *Session) OpenCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.OpenCart()
}

func (s *Session) CloseCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.CloseCart()
}

func (s *Session) BuyNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.BuyNow()
}

func (s *Session) SetAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow.SetAddress(address)
}

// Submit sends the current cart to gw. The session lock is not held during
// the gateway call, so the cart can still change; the request carries the
// lines present at dispatch. The call is detached from ctx cancellation and
// always runs to completion.
//
// A Submission is returned whenever the gateway was called, including on a
// *checkout.GatewayError.
func (s *Session) Submit(ctx context.Context, gw checkout.OrderGateway) (*Submission, error) {
	s.mu.Lock()
	req, err := s.flow.BeginSubmit(s.Username)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	resp, gwErr := gw.SubmitOrder(context.WithoutCancel(ctx), req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// The flow was reset by logout; report what the gateway said.
		msg, err := checkout.Outcome(resp, gwErr)
		return &Submission{Request: req, Message: msg, Closed: true}, err
	}
	msg, err := s.flow.Complete(resp, gwErr)
	return &Submission{Request: req, Message: msg}, err
}

// close empties the cart, returns the flow to Idle and stops further saves.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cart.Clear()
	s.flow.Reset()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.touched)
}
