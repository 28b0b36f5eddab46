package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func validAddress() Address {
	return Address{Name: "Amina", Phone: "0704546916", Line1: "Moi Avenue 12", City: "Nairobi"}
}

func TestCreateOrderRequest_Valid(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		Items: []OrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		ShippingAddress: validAddress(),
		PaymentMethod:   "cash_on_delivery",
	}

	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCreateOrderRequest_ItemsOptional(t *testing.T) {
	v := New()

	req := CreateOrderRequest{ShippingAddress: validAddress(), PaymentMethod: "card"}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid without items, got error: %v", err)
	}
}

func TestCreateOrderRequest_MpesaNeedsCode(t *testing.T) {
	v := New()

	req := CreateOrderRequest{ShippingAddress: validAddress(), PaymentMethod: "mpesa"}
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for missing payment code, got nil")
	}

	req.PaymentCode = "QK12ABC34"
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid with payment code, got error: %v", err)
	}
}

func TestCreateOrderRequest_Invalid(t *testing.T) {
	v := New()

	cases := map[string]CreateOrderRequest{
		"missing address":   {PaymentMethod: "card"},
		"unknown method":    {ShippingAddress: validAddress(), PaymentMethod: "bitcoin"},
		"zero quantity":     {ShippingAddress: validAddress(), PaymentMethod: "card", Items: []OrderItem{{ProductID: "p1"}}},
		"duplicate product": {ShippingAddress: validAddress(), PaymentMethod: "card", Items: []OrderItem{{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 2}}},
	}
	for name, req := range cases {
		if err := v.Struct(req); err == nil {
			t.Fatalf("%s: expected validation error, got nil", name)
		}
	}
}

func TestReviewAndStatusRequests(t *testing.T) {
	v := New()

	if err := v.Struct(ReviewRequest{ProductID: "p1", Rating: 6}); err == nil {
		t.Fatal("expected rating above 5 to fail")
	}
	if err := v.Struct(ReviewRequest{ProductID: "p1", Rating: 5}); err != nil {
		t.Fatalf("expected valid review, got %v", err)
	}
	if err := v.Struct(StatusUpdateRequest{Status: "lost"}); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if err := v.Struct(UpdateQuantityRequest{Quantity: 0}); err != nil {
		t.Fatalf("expected zero quantity to be valid, got %v", err)
	}
	if err := v.Struct(UpdateQuantityRequest{Quantity: -1}); err != nil {
		t.Fatalf("expected negative quantity to be valid, got %v", err)
	}
	if err := v.Struct(ProductRequest{Name: "X", Price: -1}); err == nil {
		t.Fatal("expected negative price to fail")
	}
}

func TestBindAndValidate_WritesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"product_id":"p1","rating":0}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req ReviewRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ReviewRequest.Rating") {
		t.Fatalf("expected field error in body, got %s", w.Body.String())
	}
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{oops`))

	var req AddToCartRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(w.Body.String(), "invalid_request_body") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
