package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
	"storefront-service/internal/session"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	MsgSignupFailed  = "Signup failed."
	MsgLoginFailed   = "Login failed."
	MsgProfileFailed = "Profile update failed."

	orderHistoryLimit = 50
)

// Gateway is the remote storefront backend.
type Gateway interface {
	checkout.OrderGateway
	Signup(ctx context.Context, creds entity.Credentials) (*entity.GatewayResponse, error)
	Login(ctx context.Context, creds entity.Credentials) (*entity.GatewayResponse, error)
	SaveProfile(ctx context.Context, profile entity.Profile) (*entity.GatewayResponse, error)
}

type ReceiptStore interface {
	CreateReceipt(ctx context.Context, receipt *entity.OrderReceipt) (*entity.OrderReceipt, error)
	ListByUsername(ctx context.Context, username string, limit int) ([]entity.OrderReceipt, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, receipt *entity.OrderReceipt) error
}

// UpstreamError is a gateway call that failed before producing an answer.
// Message is the text shown to the user.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

type LoginResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type SubmitResult struct {
	Message string       `json:"message"`
	Cart    session.View `json:"cart"`
}

// StorefrontService drives sessions, carts and checkout for the HTTP layer.
type StorefrontService struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	gateway   Gateway
	receipts  ReceiptStore
	events    EventPublisher
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewStorefrontService wires the service. receipts and events may be nil.
func NewStorefrontService(sessions *session.Manager, cat *catalog.Catalog, gateway Gateway, receipts ReceiptStore, events EventPublisher, jwtSecret []byte, tokenTTL time.Duration) *StorefrontService {
	return &StorefrontService{
		sessions:  sessions,
		catalog:   cat,
		gateway:   gateway,
		receipts:  receipts,
		events:    events,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Signup forwards to the gateway and returns its message.
func (s *StorefrontService) Signup(ctx context.Context, creds entity.Credentials) (string, error) {
	resp, err := s.gateway.Signup(ctx, creds)
	if err != nil {
		logger.Error().Err(err).Msgf("Error signing up %s", creds.Username)
		return "", &UpstreamError{Message: MsgSignupFailed, Err: err}
	}
	return resp.Message, nil
}

// Login forwards to the gateway; when it reports success a new session with
// an empty cart is created and a bearer token for it is issued.
func (s *StorefrontService) Login(ctx context.Context, creds entity.Credentials) (*LoginResult, error) {
	resp, err := s.gateway.Login(ctx, creds)
	if err != nil {
		logger.Error().Err(err).Msgf("Error logging in %s", creds.Username)
		return nil, &UpstreamError{Message: MsgLoginFailed, Err: err}
	}
	if !resp.Success {
		return &LoginResult{Success: false, Message: resp.Message}, nil
	}

	sess, err := s.sessions.Create(ctx, creds.Username)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating session for %s", creds.Username)
		return nil, err
	}

	token, err := s.signToken(sess.ID, sess.Username)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}

	return &LoginResult{
		Success:   true,
		Message:   resp.Message,
		Token:     token,
		SessionID: sess.ID,
	}, nil
}

// Logout discards the session with its cart and address.
func (s *StorefrontService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Error().Err(err).Msgf("Error deleting session %s", sessionID)
		return err
	}
	return nil
}

func (s *StorefrontService) SaveProfile(ctx context.Context, sessionID, name, email string) (string, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resp, err := s.gateway.SaveProfile(ctx, entity.Profile{Username: sess.Username, Name: name, Email: email})
	if err != nil {
		logger.Error().Err(err).Msgf("Error saving profile for %s", sess.Username)
		return "", &UpstreamError{Message: MsgProfileFailed, Err: err}
	}
	return resp.Message, nil
}

func (s *StorefrontService) Cart(ctx context.Context, sessionID string) (*session.View, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	v := sess.View()
	return &v, nil
}

// AddItem appends the catalog product at category[index] to the cart.
func (s *StorefrontService) AddItem(ctx context.Context, sessionID, category string, index int) (*session.View, error) {
	product, err := s.catalog.Lookup(category, index)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.AddItem(product)
		return nil
	})
}

// RemoveItem drops the line at index. An index outside the cart is ignored.
func (s *StorefrontService) RemoveItem(ctx context.Context, sessionID string, index int) (*session.View, error) {
	return s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.RemoveItem(index)
		return nil
	})
}

func (s *StorefrontService) OpenCart(ctx context.Context, sessionID string) (*session.View, error) {
	return s.mutate(ctx, sessionID, (*session.Session).OpenCart)
}

func (s *StorefrontService) CloseCart(ctx context.Context, sessionID string) (*session.View, error) {
	return s.mutate(ctx, sessionID, (*session.Session).CloseCart)
}

func (s *StorefrontService) BuyNow(ctx context.Context, sessionID string) (*session.View, error) {
	return s.mutate(ctx, sessionID, (*session.Session).BuyNow)
}

func (s *StorefrontService) SetAddress(ctx context.Context, sessionID, address string) (*session.View, error) {
	return s.mutate(ctx, sessionID, func(sess *session.Session) error {
		sess.SetAddress(address)
		return nil
	})
}

// SubmitOrder sends the session's cart to the gateway. Whatever the outcome,
// once the gateway has been called a receipt is recorded and an event is
// published; failures of either are logged and do not change the result.
// A logout during the call does not bring the session back; the receipt
// still reflects what the gateway answered.
func (s *StorefrontService) SubmitOrder(ctx context.Context, sessionID string) (*SubmitResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sub, submitErr := sess.Submit(ctx, s.gateway)
	if sub != nil {
		if sub.Closed {
			logger.Info().Str("session", sessionID).Msg("Session logged out while order was in flight")
		}
		s.persist(ctx, sess)
		s.recordOutcome(ctx, sub, submitErr)
	}
	if submitErr != nil {
		return nil, submitErr
	}

	return &SubmitResult{Message: sub.Message, Cart: sess.View()}, nil
}

// Orders lists the receipts recorded for the session's user, newest first.
func (s *StorefrontService) Orders(ctx context.Context, sessionID string) ([]entity.OrderReceipt, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.receipts == nil {
		return []entity.OrderReceipt{}, nil
	}

	receipts, err := s.receipts.ListByUsername(ctx, sess.Username, orderHistoryLimit)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing receipts for %s", sess.Username)
		return nil, err
	}
	return receipts, nil
}

func (s *StorefrontService) mutate(ctx context.Context, sessionID string, fn func(*session.Session) error) (*session.View, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	s.persist(ctx, sess)

	v := sess.View()
	return &v, nil
}

func (s *StorefrontService) persist(ctx context.Context, sess *session.Session) {
	if err := s.sessions.Save(context.WithoutCancel(ctx), sess); err != nil {
		logger.Error().Err(err).Msgf("Error saving session %s", sess.ID)
	}
}

func (s *StorefrontService) recordOutcome(ctx context.Context, sub *session.Submission, submitErr error) {
	ctx = context.WithoutCancel(ctx)
	req := sub.Request

	receipt := &entity.OrderReceipt{
		Username:   req.Username,
		Address:    req.Address,
		Items:      req.Items,
		Total:      req.Total,
		GST:        req.GST,
		GrandTotal: req.GrandTotal,
		Status:     entity.ReceiptConfirmed,
		Message:    sub.Message,
		CreatedAt:  s.now().UTC(),
	}
	if submitErr != nil {
		receipt.Status = entity.ReceiptFailed
		receipt.Message = submitErr.Error()
		cause := errors.Unwrap(submitErr)
		if cause == nil {
			cause = submitErr
		}
		logger.Warn().Err(cause).Str("username", req.Username).Float64("grandTotal", req.GrandTotal).Msg("Order submission failed")
	} else {
		logger.Info().Str("username", req.Username).Int("items", len(req.Items)).Float64("grandTotal", req.GrandTotal).Msg("Order confirmed")
	}

	if s.receipts != nil {
		if _, err := s.receipts.CreateReceipt(ctx, receipt); err != nil {
			logger.Error().Err(err).Msgf("Error recording receipt for %s", req.Username)
		}
	}
	if s.events != nil {
		if err := s.events.PublishOrderEvent(ctx, receipt); err != nil {
			logger.Error().Err(err).Msgf("Error publishing order event for %s", req.Username)
		}
	}
}
