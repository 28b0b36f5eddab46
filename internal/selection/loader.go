package selection

import (
	"context"
	_ "embed"
	"errors"
	"log"

	"github.com/DrewGalowayDev/Awesome/internal/catalog"
)

//go:embed data/products.json
var bundledProducts []byte

// Origin reports which source served a snapshot.
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginSecondary Origin = "secondary"
	OriginBundled   Origin = "bundled"
	OriginNone      Origin = "none"
)

// ErrNoProducts is returned when no source produced any product.
var ErrNoProducts = errors.New("no product source available")

// Source yields a catalog snapshot.
type Source interface {
	Products(ctx context.Context) ([]catalog.Product, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]catalog.Product, error)

func (f SourceFunc) Products(ctx context.Context) ([]catalog.Product, error) { return f(ctx) }

// Loader obtains a snapshot from the first source that yields products:
// Primary, then Secondary, then the bundled dataset.
type Loader struct {
	Primary   Source
	Secondary Source
	// Bundled overrides the embedded dataset when non-nil.
	Bundled []byte
	// DisableBundled skips the bundled dataset entirely.
	DisableBundled bool
	Logger         *log.Logger
}

// Snapshot is a product list and where it came from.
type Snapshot struct {
	Products []catalog.Product `json:"products"`
	Origin   Origin            `json:"origin"`
}

// Load walks the sources in order. An error or an empty list moves on to
// the next source. When nothing works it returns OriginNone and ErrNoProducts.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}

	try := []struct {
		origin Origin
		src    Source
	}{
		{OriginPrimary, l.Primary},
		{OriginSecondary, l.Secondary},
	}
	for _, t := range try {
		if t.src == nil {
			continue
		}
		products, err := t.src.Products(ctx)
		if err != nil {
			logger.Printf("[selection] source=%s failed err=%v", t.origin, err)
			continue
		}
		if len(products) == 0 {
			logger.Printf("[selection] source=%s returned no products", t.origin)
			continue
		}
		return Snapshot{Products: products, Origin: t.origin}, nil
	}

	if !l.DisableBundled {
		data := l.Bundled
		if data == nil {
			data = bundledProducts
		}
		products, err := catalog.DecodeProducts(data)
		if err != nil {
			logger.Printf("[selection] bundled dataset unreadable err=%v", err)
		} else if len(products) > 0 {
			logger.Printf("[selection] serving bundled dataset count=%d", len(products))
			return Snapshot{Products: products, Origin: OriginBundled}, nil
		}
	}
	return Snapshot{Origin: OriginNone}, ErrNoProducts
}

// Page is the computed home page.
type Page struct {
	Origin   Origin    `json:"origin"`
	Sections []Section `json:"sections"`
}

// Page loads a snapshot and computes views over it. When no products can be
// obtained hideable views are hidden and the rest are empty; that is not an error.
func (l *Loader) Page(ctx context.Context, views []ViewConfig) Page {
	snap, _ := l.Load(ctx)
	return Page{Origin: snap.Origin, Sections: Sections(snap.Products, views)}
}
