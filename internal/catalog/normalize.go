package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalize maps a loosely-typed product record onto Product. It accepts the
// alternate field names produced by older clients and exports. ok is false
// when the record has no usable identifier.
func Normalize(raw map[string]any) (p Product, ok bool) {
	p.ID = firstString(raw, "id", "_id", "product_id")
	if p.ID == "" {
		return Product{}, false
	}

	p.Name = firstString(raw, "name", "title")
	p.Brand = firstString(raw, "brand")
	p.Description = firstString(raw, "description", "summary", "short_description")
	p.Price, _ = firstFloat(raw, "price", "price_display")
	if old, found := firstFloat(raw, "old_price", "original_price", "oldPrice"); found && old > 0 {
		p.OldPrice = &old
	}
	if stock, found := firstFloat(raw, "stock"); found {
		p.Stock = int(stock)
	}
	p.CategoryID = firstString(raw, "category_id")
	p.Category = categoryName(raw)
	p.Condition = strings.ToLower(firstString(raw, "condition"))
	p.Rating, _ = firstFloat(raw, "rating")
	if n, found := firstFloat(raw, "reviews_count", "review_count"); found {
		p.ReviewsCount = int(n)
	}
	p.Images = images(raw)
	p.Specs = stringMap(raw["specs"])
	p.Features = stringSlice(raw["features"])
	p.IsFeatured = anyTrue(raw, "is_featured", "featured")
	p.IsNewArrival = anyTrue(raw, "is_new_arrival", "is_new")
	p.IsDeal = anyTrue(raw, "is_deal", "deal")
	p.OnSale = anyTrue(raw, "on_sale")
	if s := firstString(raw, "created_at"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			p.CreatedAt = t
		}
	}
	return p, true
}

// DecodeProducts parses a product payload. The payload may be
// {"products": [...]}, {"data": [...]} or a bare array. Records without an
// identifier are skipped.
func DecodeProducts(data []byte) ([]Product, error) {
	var raws []map[string]any

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decode product array: %w", err)
		}
	} else {
		var envelope struct {
			Products []map[string]any `json:"products"`
			Data     []map[string]any `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("decode product envelope: %w", err)
		}
		raws = envelope.Products
		if raws == nil {
			raws = envelope.Data
		}
	}

	out := make([]Product, 0, len(raws))
	for _, raw := range raws {
		if p, ok := Normalize(raw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstFloat(raw map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			// numeric columns sometimes arrive as strings
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func anyTrue(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if v == "true" || v == "1" {
				return true
			}
		}
	}
	return false
}

func categoryName(raw map[string]any) string {
	if nested, ok := raw["categories"].(map[string]any); ok {
		if name, ok := nested["name"].(string); ok && name != "" {
			return name
		}
	}
	return firstString(raw, "category")
}

func images(raw map[string]any) []string {
	if list := stringSlice(raw["images"]); len(list) > 0 {
		return list
	}
	if img := firstString(raw, "image_url", "image"); img != "" {
		return []string{img}
	}
	return nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch s := val.(type) {
		case string:
			out[k] = s
		case float64:
			out[k] = strconv.FormatFloat(s, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(s)
		}
	}
	return out
}
