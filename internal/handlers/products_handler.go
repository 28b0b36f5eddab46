package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/analytics"
	"github.com/DrewGalowayDev/Awesome/internal/catalog"
	"github.com/DrewGalowayDev/Awesome/internal/selection"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerProducts(api *gin.RouterGroup, admin []gin.HandlerFunc) {
	p := api.Group("/products")
	p.GET("", s.listProducts)
	p.GET("/search", s.searchProducts)
	p.GET("/filter", s.filterProducts)
	p.GET("/featured", s.selectProducts(selection.KindFeatured))
	p.GET("/deals", s.selectProducts(selection.KindDeals))
	p.GET("/new-arrivals", s.selectProducts(selection.KindNewArrivals))
	p.GET("/category/:categoryId", s.productsByCategory)
	p.GET("/brand/:brand", s.productsByBrand)
	p.GET("/:id", s.getProduct)
	p.POST("", append(admin, s.createProduct)...)
	p.PUT("/:id", append(admin, s.updateProduct)...)
	p.PUT("/:id/stock", append(admin, s.updateStock)...)
	p.DELETE("/:id", append(admin, s.deleteProduct)...)

	cats := api.Group("/categories")
	cats.GET("", s.listCategories)
	cats.GET("/:id", s.getCategory)
	cats.POST("", append(admin, s.createCategory)...)
	cats.PUT("/:id", append(admin, s.updateCategory)...)
	cats.DELETE("/:id", append(admin, s.deleteCategory)...)

	api.GET("/storefront/sections", s.storefrontSections)
	api.GET("/admin/products/export", append(admin, s.exportProducts)...)
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryFloat(c *gin.Context, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func productList(c *gin.Context, list []catalog.Product) {
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "products": list})
}

func (s *server) listProducts(c *gin.Context) {
	params := catalog.ListParams{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	}
	res, err := s.Products.List(c.Request.Context(), params)
	if err != nil {
		s.internalError(c, "list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      res.Count,
		"page":       res.Page,
		"totalPages": res.TotalPages,
		"products":   res.Products,
	})
}

func (s *server) searchProducts(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail(c, http.StatusBadRequest, "Search query is required")
		return
	}
	list, err := s.Products.Search(c.Request.Context(), q)
	if err != nil {
		s.internalError(c, "search products", err)
		return
	}
	productList(c, list)
}

func (s *server) filterProducts(c *gin.Context) {
	inStock, _ := strconv.ParseBool(c.Query("inStock"))
	f := catalog.FilterParams{
		MinPrice:  queryFloat(c, "minPrice"),
		MaxPrice:  queryFloat(c, "maxPrice"),
		Brand:     c.Query("brand"),
		Condition: c.Query("condition"),
		Category:  c.Query("category"),
		InStock:   inStock,
	}
	list, err := s.Products.Filter(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, "filter products", err)
		return
	}
	productList(c, list)
}

// selectProducts serves a flagged view with the home page partition rules,
// so an empty flag falls back to the full catalog.
func (s *server) selectProducts(kind selection.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := s.Products.All(c.Request.Context())
		if err != nil {
			s.internalError(c, "select products", err)
			return
		}
		productList(c, selection.Select(all, kind, queryInt(c, "limit")))
	}
}

func (s *server) productsByCategory(c *gin.Context) {
	list, err := s.Products.ByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		s.internalError(c, "products by category", err)
		return
	}
	productList(c, list)
}

func (s *server) productsByBrand(c *gin.Context) {
	list, err := s.Products.ByBrand(c.Request.Context(), c.Param("brand"))
	if err != nil {
		s.internalError(c, "products by brand", err)
		return
	}
	productList(c, list)
}

func (s *server) getProduct(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.Products.Get(ctx, c.Param("id"))
	if err != nil {
		s.internalError(c, "get product", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	resp := gin.H{"success": true, "product": p}
	if s.Reviews != nil {
		if list, err := s.Reviews.ListByProduct(ctx, p.ID); err == nil {
			resp["reviews"] = list
		} else {
			s.Logger.Printf("[handlers] product reviews unavailable product_id=%s err=%v", p.ID, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) createProduct(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	p, err := s.Products.Create(c.Request.Context(), req.Product())
	if err != nil {
		s.internalError(c, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Product created successfully", "product": p})
}

func (s *server) updateProduct(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	p, err := s.Products.Update(c.Request.Context(), c.Param("id"), req.Product())
	if err != nil {
		s.internalError(c, "update product", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product updated successfully", "product": p})
}

func (s *server) updateStock(c *gin.Context) {
	var req validation.StockRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	p, err := s.Products.SetStock(c.Request.Context(), c.Param("id"), req.Stock)
	if err != nil {
		s.internalError(c, "update stock", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Stock updated successfully", "product": p})
}

func (s *server) deleteProduct(c *gin.Context) {
	deleted, err := s.Products.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "delete product", err)
		return
	}
	if !deleted {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

func (s *server) listCategories(c *gin.Context) {
	list, err := s.Products.Categories(c.Request.Context())
	if err != nil {
		s.internalError(c, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "categories": list})
}

func (s *server) storefrontSections(c *gin.Context) {
	page := s.Sections.Page(c.Request.Context(), selection.DefaultViews())
	c.JSON(http.StatusOK, gin.H{"success": true, "origin": page.Origin, "sections": page.Sections})
}

func (s *server) exportProducts(c *gin.Context) {
	list, err := s.Products.All(c.Request.Context())
	if err != nil {
		s.internalError(c, "export products", err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="products.csv"`)
	c.Status(http.StatusOK)
	if err := analytics.WriteProductsCSV(c.Writer, list); err != nil {
		s.Logger.Printf("[handlers] products export write failed err=%v", err)
	}
}

func (s *server) getCategory(c *gin.Context) {
	cat, err := s.Products.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "get category", err)
		return
	}
	if cat == nil {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": cat})
}

func (s *server) createCategory(c *gin.Context) {
	var req validation.CategoryRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	cat, err := s.Products.CreateCategory(c.Request.Context(), req.Category())
	if err != nil {
		s.internalError(c, "create category", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Category created successfully", "category": cat})
}

func (s *server) updateCategory(c *gin.Context) {
	var req validation.CategoryRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	cat, err := s.Products.UpdateCategory(c.Request.Context(), c.Param("id"), req.Category())
	if err != nil {
		s.internalError(c, "update category", err)
		return
	}
	if cat == nil {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category updated successfully", "category": cat})
}

func (s *server) deleteCategory(c *gin.Context) {
	deleted, err := s.Products.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "delete category", err)
		return
	}
	if !deleted {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}
