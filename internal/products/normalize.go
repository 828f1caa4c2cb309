package products

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQuantity es el tope de la columna quantity (INTEGER en Postgres).
const MaxQuantity = math.MaxInt32

var (
	priceFormat = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)
	stockFormat = regexp.MustCompile(`^\d+$`)
)

// NormalizePrice convierte el texto del precio a decimal.
// Las comas pasan a punto y se parsea sin depender de la cultura.
// Si no se puede parsear devuelve 0, que nunca pasa la validación de rango.
func NormalizePrice(raw string) decimal.Decimal {
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return price
}

// NormalizeStock devuelve el stock como entero si el texto es solo dígitos.
// Signos, separadores o un valor fuera de int32 dan false.
func NormalizeStock(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if !stockFormat.MatchString(raw) {
		return 0, false
	}
	stock, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(stock), true
}

// isPriceFormat aplica la regla de formato: entero con hasta 2 decimales, coma o punto.
func isPriceFormat(raw string) bool {
	return priceFormat.MatchString(strings.TrimSpace(raw))
}

func isStockFormat(raw string) bool {
	return stockFormat.MatchString(strings.TrimSpace(raw))
}
