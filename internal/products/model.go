package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un registro persistido en la tabla products.
// Price usa decimal para no arrastrar errores de precisión de float (DB: numeric).
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Details     string          `json:"details,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Submission es lo que manda el usuario desde el formulario de alta.
// Stock y Price llegan como texto: pueden traer coma o punto decimal.
// Nunca se persiste tal cual.
type Submission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Details     string `json:"details"`
	Stock       string `json:"stock"`
	Price       string `json:"price"`
}

// Outcome indica qué hizo Save con una submission válida.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeMerged   Outcome = "merged"
)
