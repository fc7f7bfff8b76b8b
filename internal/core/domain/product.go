package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const LowStockThreshold = 10

var skuPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

type Product struct {
	ID              int64  `json:"id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	LocationCode    string `json:"locationCode"`
	QuantityInStock int    `json:"quantityInStock"`
}

func (p Product) LowStock() bool {
	return IsLowStock(p.QuantityInStock)
}

func IsLowStock(quantity int) bool {
	return quantity < LowStockThreshold
}

// StockCheck is the inventory side's answer to "are Requested units of SKU available".
type StockCheck struct {
	SKU        string `json:"sku"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

func ValidateSKU(sku string) error {
	if !skuPattern.MatchString(sku) {
		return fmt.Errorf("%w: sku %q must be uppercase alphanumeric", ErrValidation, sku)
	}
	return nil
}

func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
