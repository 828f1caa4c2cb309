package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Database es lo que el repositorio usa de pgx. Lo cumplen *pgxpool.Pool y pgx.Tx.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// errLockOutsideTx: el advisory lock de transacción no sirve sin transacción.
var errLockOutsideTx = errors.New("products: LockName requires a transaction")

const productColumns = `id, name, description, details, price::text, quantity, created_at, updated_at`

// Repository accede a la tabla products.
// Contiene SQL y mapeo DB → modelo.
type Repository struct {
	database Database
	inTx     bool
}

// NewRepository crea un repositorio de productos.
func NewRepository(database Database) *Repository {
	return &Repository{database: database}
}

// InTx corre fn dentro de una transacción. Si fn devuelve error se hace rollback;
// si no, commit. El repositorio que recibe fn está atado a la transacción.
func (repository *Repository) InTx(ctx context.Context, fn func(repository RepositoryAPI) error) error {
	tx, err := repository.database.Begin(ctx)
	if err != nil {
		return err
	}
	// Después de Commit, Rollback devuelve pgx.ErrTxClosed: se ignora.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Repository{database: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LockName toma un advisory lock por nombre que se libera al terminar la transacción.
// Serializa find-or-create del mismo nombre sin depender de un índice unique.
func (repository *Repository) LockName(ctx context.Context, name string) error {
	if !repository.inTx {
		return errLockOutsideTx
	}
	_, err := repository.database.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, name)
	return err
}

// GetAll devuelve todos los productos por id ascendente.
func (repository *Repository) GetAll(ctx context.Context) ([]Product, error) {
	rows, err := repository.database.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Slice vacío (no nil) para que el JSON sea [] y no null.
	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID busca por id. found=false si no existe.
func (repository *Repository) GetByID(ctx context.Context, id int64) (Product, bool, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1` + repository.lockClause() + `;`
	return repository.queryOne(ctx, query, id)
}

// FindByName busca por nombre exacto (case-sensitive). Si hubiera filas repetidas
// de antes de la deduplicación, gana la de menor id.
func (repository *Repository) FindByName(ctx context.Context, name string) (Product, bool, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1 ORDER BY id ASC LIMIT 1` + repository.lockClause() + `;`
	return repository.queryOne(ctx, query, name)
}

// Insert crea un producto y devuelve el registro persistido.
// Usamos RETURNING para obtener id y timestamps generados por DB.
func (repository *Repository) Insert(ctx context.Context, product Product) (Product, error) {
	const query = `
		INSERT INTO products (name, description, details, price, quantity)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING ` + productColumns + `;
	`

	row := repository.database.QueryRow(ctx, query, product.Name, product.Description, product.Details, product.Price.String(), product.Quantity)
	return scanProduct(row)
}

// Update persiste todos los campos editables sobre el id existente.
func (repository *Repository) Update(ctx context.Context, product Product) (Product, error) {
	const query = `
		UPDATE products
		SET name = $2, description = $3, details = $4, price = $5::numeric, quantity = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	row := repository.database.QueryRow(ctx, query, product.ID, product.Name, product.Description, product.Details, product.Price.String(), product.Quantity)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrorNotFound
		}
		return Product{}, err
	}
	return updated, nil
}

// Delete borra por id. Borrar un id inexistente no es error: removed=false.
func (repository *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := repository.database.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Dentro de una transacción las lecturas puntuales bloquean la fila
// hasta el commit, así dos merges no pisan la cantidad del otro.
func (repository *Repository) lockClause() string {
	if repository.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func (repository *Repository) queryOne(ctx context.Context, query string, arg any) (Product, bool, error) {
	product, err := scanProduct(repository.database.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, false, nil
		}
		return Product{}, false, err
	}
	return product, true, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	var price string
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Details, &price, &product.Quantity, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}

	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("scan product %d price %q: %w", product.ID, price, err)
	}
	return product, nil
}
