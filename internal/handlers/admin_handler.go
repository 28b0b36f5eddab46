package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DrewGalowayDev/Awesome/internal/analytics"
	"github.com/DrewGalowayDev/Awesome/internal/notify"
	"github.com/DrewGalowayDev/Awesome/internal/orders"
	"github.com/DrewGalowayDev/Awesome/internal/validation"
)

func (s *server) registerAdmin(g *gin.RouterGroup) {
	g.GET("/orders", s.adminOrders)
	g.PUT("/orders/:id/status", s.updateOrderStatus)
	g.GET("/analytics", s.adminAnalytics)
	g.GET("/dashboard", s.adminDashboard)
	g.GET("/customers", s.adminCustomers)
	g.GET("/customers/export", s.exportCustomers)
	g.POST("/notify/product", s.notifyProduct)
	g.POST("/notify/customer", s.notifyCustomer)
	g.POST("/notify/order/:id", s.notifyOrder)
	g.POST("/notify/broadcast", s.notifyBroadcast)
}

func (s *server) adminOrders(c *gin.Context) {
	list, err := s.Orders.ListAll(c.Request.Context())
	if err != nil {
		s.internalError(c, "list all orders", err)
		return
	}
	if status := c.Query("status"); status != "" {
		filtered := list[:0]
		for _, o := range list {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "orders": list})
}

func (s *server) updateOrderStatus(c *gin.Context) {
	var req validation.StatusUpdateRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	o, err := s.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if errors.Is(err, orders.ErrNotFound) {
		fail(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		s.internalError(c, "update order status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "order": o})
}

func (s *server) adminAnalytics(c *gin.Context) {
	period := analytics.PeriodMonth
	if raw := c.Query("period"); raw != "" {
		p, ok := analytics.ParsePeriod(raw)
		if !ok {
			fail(c, http.StatusBadRequest, "period must be one of today, week, month, year")
			return
		}
		period = p
	}
	list, err := s.Orders.ListAll(c.Request.Context())
	if err != nil {
		s.internalError(c, "analytics orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": analytics.Aggregate(list, period, s.NowFunc())})
}

func (s *server) adminDashboard(c *gin.Context) {
	src := analytics.Sources{
		Products:   s.Products.All,
		Orders:     s.Orders.ListAll,
		Categories: s.Products.Categories,
	}
	if s.Users != nil {
		src.Users = s.Users.List
	}
	report := analytics.Dashboard(c.Request.Context(), src, s.NowFunc())
	for _, w := range report.Warnings {
		s.Logger.Printf("[handlers] dashboard degraded warning=%q", w)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": report})
}

func (s *server) customerSummaries(ctx context.Context) ([]analytics.CustomerSummary, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.Orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Customers(users, list), nil
}

func (s *server) adminCustomers(c *gin.Context) {
	customers, err := s.customerSummaries(c.Request.Context())
	if err != nil {
		s.internalError(c, "customers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(customers), "customers": customers})
}

func (s *server) exportCustomers(c *gin.Context) {
	customers, err := s.customerSummaries(c.Request.Context())
	if err != nil {
		s.internalError(c, "export customers", err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="customers.csv"`)
	c.Status(http.StatusOK)
	if err := analytics.WriteCustomersCSV(c.Writer, customers); err != nil {
		s.Logger.Printf("[handlers] customers export write failed err=%v", err)
	}
}

func linkBody(message, link string) gin.H {
	return gin.H{"success": true, "message": message, "link": link}
}

func (s *server) notifyProduct(c *gin.Context) {
	var req validation.NotifyProductRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	p, err := s.Products.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		s.internalError(c, "notify product lookup", err)
		return
	}
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	promo := notify.ProductPromo{Name: p.Name, Price: p.Price}
	if p.OldPrice != nil {
		promo.OldPrice = *p.OldPrice
	}
	msg := notify.FormatProductPromo(promo)
	phone := req.Phone
	if phone == "" {
		phone = s.destination()
	}
	c.JSON(http.StatusOK, linkBody(msg, notify.DeepLink(s.NotifyHost, phone, msg)))
}

// usablePhone reports whether a stored phone has any digits.
func usablePhone(phone string) bool {
	return strings.IndexFunc(phone, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func (s *server) notifyCustomer(c *gin.Context) {
	var req validation.NotifyCustomerRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	u, err := s.Users.Get(c.Request.Context(), req.CustomerID)
	if err != nil {
		s.internalError(c, "notify customer lookup", err)
		return
	}
	if u == nil {
		fail(c, http.StatusNotFound, "Customer not found")
		return
	}
	if !usablePhone(u.Phone) {
		fail(c, http.StatusBadRequest, "Customer phone number not available")
		return
	}
	msg := notify.FormatCustomerMessage(u.Name, req.Message)
	c.JSON(http.StatusOK, linkBody(msg, notify.DeepLink(s.NotifyHost, u.Phone, msg)))
}

func (s *server) notifyOrder(c *gin.Context) {
	o, err := s.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "notify order lookup", err)
		return
	}
	if o == nil {
		fail(c, http.StatusNotFound, "Order not found")
		return
	}
	if !usablePhone(o.ShippingAddress.Phone) {
		fail(c, http.StatusBadRequest, "Customer phone number not available")
		return
	}
	msg := notify.FormatOrderUpdate(*o)
	c.JSON(http.StatusOK, linkBody(msg, notify.DeepLink(s.NotifyHost, o.ShippingAddress.Phone, msg)))
}

type broadcastLink struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Link       string `json:"link"`
}

// inSegment: active covers Active and VIP customers, vip only VIP.
func inSegment(target string, c analytics.CustomerSummary) bool {
	switch target {
	case "vip":
		return c.Tier == analytics.TierVIP
	case "active":
		return c.Tier == analytics.TierVIP || c.Tier == analytics.TierActive
	default:
		return true
	}
}

// notifyBroadcast returns one link per reachable customer in the segment.
// Messages are sent by hand, one chat at a time.
func (s *server) notifyBroadcast(c *gin.Context) {
	var req validation.BroadcastRequest
	if err := validation.BindAndValidate(c, &req, s.v); err != nil {
		return
	}
	customers, err := s.customerSummaries(c.Request.Context())
	if err != nil {
		s.internalError(c, "broadcast customers", err)
		return
	}
	msg := notify.FormatBroadcast(req.Message)
	links := []broadcastLink{}
	for _, cs := range customers {
		if !inSegment(req.Target, cs) || !usablePhone(cs.Phone) {
			continue
		}
		links = append(links, broadcastLink{
			CustomerID: cs.ID,
			Name:       cs.Name,
			Link:       notify.DeepLink(s.NotifyHost, cs.Phone, msg),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "count": len(links), "links": links})
}
