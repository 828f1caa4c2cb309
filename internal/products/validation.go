package products

import (
	"errors"
	"reflect"
	"strings"

	v10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Claves de mensaje. El texto localizado lo resuelve la capa de presentación.
const (
	KeyMissingName             = "MissingName"
	KeyMissingPrice            = "MissingPrice"
	KeyMissingStock            = "MissingStock"
	KeyPriceNotANumber         = "PriceNotANumber"
	KeyPriceNotGreaterThanZero = "PriceNotGreaterThanZero"
	KeyStockNotAnInteger       = "StockNotAnInteger"
	KeyStockNotGreaterThanZero = "StockNotGreaterThanZero"
	KeyStockLimitExceeded      = "StockLimitExceeded"
)

// Campos visibles para el usuario.
const (
	FieldName  = "name"
	FieldPrice = "price"
	FieldStock = "stock"
)

// FieldError es un error de validación asociado a un campo del formulario.
type FieldError struct {
	Field string `json:"field"`
	Key   string `json:"key"`
}

// submissionRules es la vista que se valida. PriceValue es el precio ya
// normalizado: sus errores se reasignan a price antes de salir (ver remapDerived).
type submissionRules struct {
	Name       string          `json:"name" validate:"required"`
	Price      string          `json:"price" validate:"required,price_format"`
	PriceValue decimal.Decimal `json:"price_value" validate:"gte=0.01"`
	Stock      string          `json:"stock" validate:"required,stock_format,stock_range"`
}

// derivedFields mapea campo derivado → campo que tipeó el usuario.
var derivedFields = map[string]string{
	"price_value": FieldPrice,
}

// messageKeys mapea (campo, regla) → clave de mensaje.
var messageKeys = map[string]map[string]string{
	FieldName: {
		"required": KeyMissingName,
	},
	FieldPrice: {
		"required":     KeyMissingPrice,
		"price_format": KeyPriceNotANumber,
	},
	"price_value": {
		"gte": KeyPriceNotGreaterThanZero,
	},
	FieldStock: {
		"required":     KeyMissingStock,
		"stock_format": KeyStockNotAnInteger,
		"stock_range":  KeyStockNotGreaterThanZero,
	},
}

var validate = newValidator()

func newValidator() *v10.Validate {
	validate := v10.New()

	// Usamos el nombre del tag json para que los errores salgan con el nombre del campo del formulario.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})

	// decimal.Decimal se compara como float64 para poder usar gte.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if value, ok := field.Interface().(decimal.Decimal); ok {
			return value.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(validate, "price_format", func(fl v10.FieldLevel) bool {
		return isPriceFormat(fl.Field().String())
	})
	mustRegister(validate, "stock_format", func(fl v10.FieldLevel) bool {
		return isStockFormat(fl.Field().String())
	})
	mustRegister(validate, "stock_range", func(fl v10.FieldLevel) bool {
		stock, ok := NormalizeStock(fl.Field().String())
		return ok && stock >= 1 && stock <= MaxQuantity
	})

	return validate
}

func mustRegister(validate *v10.Validate, tag string, fn v10.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate aplica las reglas de required/formato/rango a una submission.
// Es pura: no toca estado ni dependencias. Los errores salen ordenados
// name, price, stock y solo con campos que el usuario completó.
func Validate(submission Submission) (bool, []FieldError) {
	rules := submissionRules{
		Name:       strings.TrimSpace(submission.Name),
		Price:      strings.TrimSpace(submission.Price),
		PriceValue: NormalizePrice(submission.Price),
		Stock:      strings.TrimSpace(submission.Stock),
	}

	err := validate.Struct(rules)
	if err == nil {
		return true, nil
	}

	var validationErrors v10.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Solo pasa con un uso inválido del validator (bug nuestro, no del input).
		panic(err)
	}

	raw := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := fieldErr.Field()
		raw = append(raw, FieldError{Field: field, Key: messageKeys[field][fieldErr.Tag()]})
	}

	fieldErrors := remapDerived(raw)
	return len(fieldErrors) == 0, fieldErrors
}

// remapDerived pasa los errores de campos derivados al campo de origen y descarta
// la entrada del derivado. Si el origen ya falló por required, el error derivado
// no aporta nada (un precio vacío siempre normaliza a 0) y se omite.
func remapDerived(raw []FieldError) []FieldError {
	missing := make(map[string]bool)
	for _, fieldErr := range raw {
		if _, derived := derivedFields[fieldErr.Field]; !derived && isRequiredKey(fieldErr.Key) {
			missing[fieldErr.Field] = true
		}
	}

	out := make([]FieldError, 0, len(raw))
	for _, fieldErr := range raw {
		source, derived := derivedFields[fieldErr.Field]
		if !derived {
			out = append(out, fieldErr)
			continue
		}
		if missing[source] {
			continue
		}
		out = append(out, FieldError{Field: source, Key: fieldErr.Key})
	}
	return out
}

func isRequiredKey(key string) bool {
	switch key {
	case KeyMissingName, KeyMissingPrice, KeyMissingStock:
		return true
	}
	return false
}
