package services

import (
	"fmt"
	"sort"
	"time"

	"go-label-printer/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ListPriceResolver prices every product at its list price.
type ListPriceResolver struct{}

func (ListPriceResolver) ResolvePrice(product *models.Product) (decimal.Decimal, error) {
	return product.ListPrice, nil
}

// PricelistResolver applies pricelist rules for a fixed quantity.
type PricelistResolver struct {
	pricelist *models.Pricelist
	quantity  decimal.Decimal
	now       func() time.Time
}

// NewPricelistResolver prices single units, the quantity a shelf label shows.
func NewPricelistResolver(pricelist *models.Pricelist) *PricelistResolver {
	return &PricelistResolver{
		pricelist: pricelist,
		quantity:  decimal.NewFromInt(1),
		now:       time.Now,
	}
}

func (r *PricelistResolver) ResolvePrice(product *models.Product) (decimal.Decimal, error) {
	item := r.match(product)
	if item == nil {
		return product.ListPrice, nil
	}

	switch item.ComputePrice {
	case models.ComputeFixed:
		return item.FixedPrice, nil
	case models.ComputePercentage:
		discount := product.ListPrice.Mul(item.PercentPrice).Div(hundred)
		return product.ListPrice.Sub(discount).Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("pricelist %q rule %d: unknown compute mode %q",
			r.pricelist.Name, item.PricelistItemID, item.ComputePrice)
	}
}

// match picks the applicable rule: product-specific rules before global
// ones, then by sequence.
func (r *PricelistResolver) match(product *models.Product) *models.PricelistItem {
	now := r.now()
	var candidates []*models.PricelistItem
	for i := range r.pricelist.Items {
		item := &r.pricelist.Items[i]
		if item.ProductID != nil && *item.ProductID != product.ProductID {
			continue
		}
		if item.MinQuantity.GreaterThan(r.quantity) {
			continue
		}
		if item.DateStart != nil && now.Before(*item.DateStart) {
			continue
		}
		if item.DateEnd != nil && now.After(*item.DateEnd) {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i].ProductID != nil, candidates[j].ProductID != nil
		if ci != cj {
			return ci
		}
		return candidates[i].Sequence < candidates[j].Sequence
	})
	return candidates[0]
}

// TaxIncludedResolver adds the product tax rate on top of another resolver.
type TaxIncludedResolver struct {
	Base PriceResolver
}

func (r TaxIncludedResolver) ResolvePrice(product *models.Product) (decimal.Decimal, error) {
	price, err := r.Base.ResolvePrice(product)
	if err != nil {
		return decimal.Zero, err
	}
	if product.TaxRate.IsZero() {
		return price, nil
	}
	factor := decimal.NewFromInt(1).Add(product.TaxRate.Div(hundred))
	return price.Mul(factor).Round(2), nil
}

// ResolverFor picks the resolver a template and optional pricelist call for.
func ResolverFor(template *models.LabelTemplate, pricelist *models.Pricelist) PriceResolver {
	var base PriceResolver = ListPriceResolver{}
	if pricelist != nil {
		base = NewPricelistResolver(pricelist)
	}
	if template.ShowPriceWithTax {
		return TaxIncludedResolver{Base: base}
	}
	return base
}
