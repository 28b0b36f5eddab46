package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/cart"
	"github.com/DrewGalowayDev/Awesome/internal/notify"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerCart(g *gin.RouterGroup) {
	g.GET("", s.getCart)
	g.POST("", s.addToCart)
	g.PUT("/:productId", s.updateCartItem)
	g.DELETE("/:productId", s.removeCartItem)
	g.DELETE("", s.clearCart)
	g.GET("/checkout", s.cartCheckout)
	g.GET("/checkout/qr", s.cartCheckoutQR)
}

// cartFor loads the caller's cart. One Store lives for one request.
func (s *server) cartFor(c *gin.Context) *cart.Store {
	key := cart.Key(s.CartNamespace, identity(c).UserID)
	return cart.New(c.Request.Context(), s.CartSlot, key, s.Logger)
}

func cartBody(store *cart.Store) gin.H {
	return gin.H{
		"success": true,
		"items":   store.Items(),
		"count":   store.Count(),
		"totals":  store.Totals(),
	}
}

func (s *server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartBody(s.cartFor(c)))
}

func (s *server) addToCart(c *gin.Context) {
	var req validation.AddToCartRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	ctx := c.Request.Context()
	p, err := s.Products.Get(ctx, req.ProductID)
	if err != nil {
		s.internalError(c, "add to cart", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	store := s.cartFor(c)
	store.AddItem(ctx, *p, req.Quantity)
	body := cartBody(store)
	body["message"] = "Item added to cart"
	c.JSON(http.StatusCreated, body)
}

func (s *server) updateCartItem(c *gin.Context) {
	var req validation.UpdateQuantityRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	store := s.cartFor(c)
	if !store.UpdateQuantity(c.Request.Context(), c.Param("productId"), req.Quantity) {
		fail(c, http.StatusNotFound, "Item not in cart")
		return
	}
	body := cartBody(store)
	body["message"] = "Cart item updated"
	c.JSON(http.StatusOK, body)
}

func (s *server) removeCartItem(c *gin.Context) {
	store := s.cartFor(c)
	if !store.RemoveItem(c.Request.Context(), c.Param("productId")) {
		fail(c, http.StatusNotFound, "Item not in cart")
		return
	}
	body := cartBody(store)
	body["message"] = "Item removed from cart"
	c.JSON(http.StatusOK, body)
}

func (s *server) clearCart(c *gin.Context) {
	store := s.cartFor(c)
	store.Clear(c.Request.Context())
	body := cartBody(store)
	body["message"] = "Cart cleared"
	c.JSON(http.StatusOK, body)
}

func (s *server) checkoutLink(c *gin.Context) (msg, link string, ok bool) {
	msg, ok = s.cartFor(c).OrderMessage()
	if !ok {
		fail(c, http.StatusBadRequest, "Your cart is empty")
		return "", "", false
	}
	return msg, notify.DeepLink(s.NotifyHost, s.destination(), msg), true
}

func (s *server) destination() string {
	if s.NotifyDestination == "" {
		return notify.DefaultDestination
	}
	return s.NotifyDestination
}

func (s *server) cartCheckout(c *gin.Context) {
	msg, link, ok := s.checkoutLink(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "link": link})
}

func (s *server) cartCheckoutQR(c *gin.Context) {
	size := queryInt(c, "size")
	if size > notify.MaxQRSize {
		fail(c, http.StatusBadRequest, fmt.Sprintf("size must be at most %d", notify.MaxQRSize))
		return
	}
	_, link, ok := s.checkoutLink(c)
	if !ok {
		return
	}
	png, err := notify.QRCode(link, size)
	if err != nil {
		s.internalError(c, "checkout qr", err)
		return
	}
	c.Header("Content-Length", strconv.Itoa(len(png)))
	c.Data(http.StatusOK, "image/png", png)
}
