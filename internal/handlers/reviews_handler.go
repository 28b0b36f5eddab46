package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/reviews"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerReviews(api *gin.RouterGroup, auth gin.HandlerFunc) {
	g := api.Group("/reviews")
	g.GET("/product/:productId", s.productReviews)
	g.POST("", auth, s.createReview)
	g.PUT("/:id", auth, s.updateReview)
	g.DELETE("/:id", auth, s.deleteReview)
}

// recompute refreshes the product rating. The review write already
// succeeded, so a failure here is logged and not returned.
func (s *server) recompute(c *gin.Context, productID string) {
	if s.Ratings == nil {
		return
	}
	if err := s.Ratings.RecomputeRating(c.Request.Context(), productID); err != nil {
		s.Logger.Printf("[handlers] rating recompute failed product_id=%s err=%v", productID, err)
	}
}

func (s *server) productReviews(c *gin.Context) {
	list, err := s.Reviews.ListByProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		s.internalError(c, "list reviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(list),
		"rating":  reviews.AverageRating(list),
		"reviews": list,
	})
}

func (s *server) createReview(c *gin.Context) {
	var req validation.ReviewRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	ctx := c.Request.Context()
	p, err := s.Products.Get(ctx, req.ProductID)
	if err != nil {
		s.internalError(c, "review product lookup", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	id := identity(c)
	r, err := s.Reviews.Create(ctx, reviews.Review{
		ProductID: req.ProductID,
		UserID:    id.UserID,
		UserName:  id.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		s.internalError(c, "create review", err)
		return
	}
	s.recompute(c, r.ProductID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Review added", "review": r})
}

func (s *server) updateReview(c *gin.Context) {
	var req validation.ReviewUpdateRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	r, err := s.Reviews.Update(c.Request.Context(), c.Param("id"), identity(c).UserID, req.Rating, req.Comment)
	if errors.Is(err, reviews.ErrNotOwner) {
		fail(c, http.StatusForbidden, "Not authorized to update this review")
		return
	}
	if err != nil {
		s.internalError(c, "update review", err)
		return
	}
	if r == nil {
		fail(c, http.StatusNotFound, "Review not found")
		return
	}
	s.recompute(c, r.ProductID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Review updated", "review": r})
}

func (s *server) deleteReview(c *gin.Context) {
	id := identity(c)
	owner := id.UserID
	if id.IsAdmin() {
		owner = ""
	}
	r, err := s.Reviews.Delete(c.Request.Context(), c.Param("id"), owner)
	if errors.Is(err, reviews.ErrNotOwner) {
		fail(c, http.StatusForbidden, "Not authorized to delete this review")
		return
	}
	if err != nil {
		s.internalError(c, "delete review", err)
		return
	}
	if r == nil {
		fail(c, http.StatusNotFound, "Review not found")
		return
	}
	s.recompute(c, r.ProductID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Review deleted"})
}
