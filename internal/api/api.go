package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
	"storefront-service/internal/service"
	"storefront-service/internal/session"
)

type StorefrontHandler struct {
	svc *service.StorefrontService
}

// NewStorefrontHandler creates a new instance of StorefrontHandler
func NewStorefrontHandler(svc *service.StorefrontService) *StorefrontHandler {
	return &StorefrontHandler{svc: svc}
}

// RegisterRoutes mounts the public routes on e and the session routes behind
// bearer token auth.
func RegisterRoutes(e *echo.Echo, h *StorefrontHandler) {
	e.POST("/signup", h.Signup)
	e.POST("/login", h.Login)
	e.GET("/health", h.Health)

	g := e.Group("")
	g.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: h.svc.JWTSecret(),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.SessionClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		},
	}))

	g.POST("/logout", h.Logout)
	g.POST("/profile", h.SaveProfile)
	g.GET("/cart", h.GetCart)
	g.POST("/cart/items", h.AddItem)
	g.DELETE("/cart/items/:index", h.RemoveItem)
	g.POST("/cart/open", h.OpenCart)
	g.POST("/cart/close", h.CloseCart)
	g.GET("/checkout", h.GetCheckout)
	g.POST("/checkout/buy", h.BuyNow)
	g.PUT("/checkout/address", h.SetAddress)
	g.POST("/checkout/submit", h.SubmitOrder)
	g.GET("/orders", h.ListOrders)
}

// Signup --> POST /signup
func (h *StorefrontHandler) Signup(c echo.Context) error {
	creds := entity.Credentials{}
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	msg, err := h.svc.Signup(c.Request().Context(), creds)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// Login --> POST /login
func (h *StorefrontHandler) Login(c echo.Context) error {
	creds := entity.Credentials{}
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	res, err := h.svc.Login(c.Request().Context(), creds)
	if err != nil {
		return errorResponse(c, err)
	}
	if !res.Success {
		return c.JSON(http.StatusUnauthorized, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout --> POST /logout
func (h *StorefrontHandler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), sessionID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// SaveProfile --> POST /profile
func (h *StorefrontHandler) SaveProfile(c echo.Context) error {
	profile := struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}{}
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	msg, err := h.svc.SaveProfile(c.Request().Context(), sessionID(c), profile.Name, profile.Email)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// GetCart --> GET /cart
func (h *StorefrontHandler) GetCart(c echo.Context) error {
	view, err := h.svc.Cart(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// AddItem --> POST /cart/items
func (h *StorefrontHandler) AddItem(c echo.Context) error {
	item := struct {
		Category string `json:"category"`
		Index    *int   `json:"index"`
	}{}
	if err := c.Bind(&item); err != nil || item.Category == "" || item.Index == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	view, err := h.svc.AddItem(c.Request().Context(), sessionID(c), item.Category, *item.Index)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// RemoveItem --> DELETE /cart/items/:index
func (h *StorefrontHandler) RemoveItem(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid index"})
	}

	view, err := h.svc.RemoveItem(c.Request().Context(), sessionID(c), index)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// OpenCart --> POST /cart/open
func (h *StorefrontHandler) OpenCart(c echo.Context) error {
	return h.respondView(c, h.svc.OpenCart)
}

// CloseCart --> POST /cart/close
func (h *StorefrontHandler) CloseCart(c echo.Context) error {
	return h.respondView(c, h.svc.CloseCart)
}

// GetCheckout --> GET /checkout
func (h *StorefrontHandler) GetCheckout(c echo.Context) error {
	view, err := h.svc.Cart(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":   view.State,
		"address": view.Address,
		"totals":  view.Totals,
	})
}

// BuyNow --> POST /checkout/buy
func (h *StorefrontHandler) BuyNow(c echo.Context) error {
	return h.respondView(c, h.svc.BuyNow)
}

// SetAddress --> PUT /checkout/address
func (h *StorefrontHandler) SetAddress(c echo.Context) error {
	body := struct {
		Address string `json:"address"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	view, err := h.svc.SetAddress(c.Request().Context(), sessionID(c), body.Address)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// SubmitOrder --> POST /checkout/submit
func (h *StorefrontHandler) SubmitOrder(c echo.Context) error {
	res, err := h.svc.SubmitOrder(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListOrders --> GET /orders
func (h *StorefrontHandler) ListOrders(c echo.Context) error {
	orders, err := h.svc.Orders(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Health --> GET /health
func (h *StorefrontHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "storefront-service",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (h *StorefrontHandler) respondView(c echo.Context, fn func(ctx context.Context, sessionID string) (*session.View, error)) error {
	view, err := fn(c.Request().Context(), sessionID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func sessionID(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*service.SessionClaims)
	if !ok {
		return ""
	}
	return claims.SessionID
}

func errorResponse(c echo.Context, err error) error {
	var (
		emptyCart    checkout.EmptyCartError
		blankAddress checkout.BlankAddressError
		gatewayErr   *checkout.GatewayError
		upstreamErr  *service.UpstreamError
	)

	switch {
	case errors.As(err, &emptyCart), errors.As(err, &blankAddress):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &gatewayErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": checkout.MsgOrderFailed})
	case errors.As(err, &upstreamErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": upstreamErr.Message})
	case errors.Is(err, session.ErrSessionNotFound):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Session expired"})
	case errors.Is(err, catalog.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrSubmissionInFlight):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
