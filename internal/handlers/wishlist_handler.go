package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerWishlist(g *gin.RouterGroup) {
	g.GET("", s.getWishlist)
	g.POST("", s.addToWishlist)
	g.DELETE("/:productId", s.removeFromWishlist)
	g.DELETE("", s.clearWishlist)
}

// getWishlist resolves ids to products; ids of deleted products are skipped.
func (s *server) getWishlist(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := s.Wishlist.Get(ctx, identity(c).UserID)
	if err != nil {
		s.internalError(c, "get wishlist", err)
		return
	}
	products := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.Products.Get(ctx, id)
		if err != nil {
			s.internalError(c, "wishlist product lookup", err)
			return
		}
		if p != nil {
			products = append(products, *p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "wishlist": products})
}

func (s *server) addToWishlist(c *gin.Context) {
	var req validation.WishlistRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	ctx := c.Request.Context()
	p, err := s.Products.Get(ctx, req.ProductID)
	if err != nil {
		s.internalError(c, "wishlist product lookup", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	if err := s.Wishlist.Add(ctx, identity(c).UserID, req.ProductID); err != nil {
		s.internalError(c, "add to wishlist", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Added to wishlist"})
}

func (s *server) removeFromWishlist(c *gin.Context) {
	removed, err := s.Wishlist.Remove(c.Request.Context(), identity(c).UserID, c.Param("productId"))
	if err != nil {
		s.internalError(c, "remove from wishlist", err)
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, "Product not in wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Removed from wishlist"})
}

func (s *server) clearWishlist(c *gin.Context) {
	if err := s.Wishlist.Clear(c.Request.Context(), identity(c).UserID); err != nil {
		s.internalError(c, "clear wishlist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Wishlist cleared"})
}
