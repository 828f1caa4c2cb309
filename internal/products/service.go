package products

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"
)

// RepositoryAPI define lo que el service necesita del storage.
// Permite testear el service con fakes sin tocar DB.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, bool, error)
	FindByName(ctx context.Context, name string) (Product, bool, error)
	Insert(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) (bool, error)
	LockName(ctx context.Context, name string) error
	InTx(ctx context.Context, fn func(repository RepositoryAPI) error) error
}

// Observer recibe los resultados de negocio (métricas).
type Observer interface {
	ProductSaved(outcome string, quantity int)
	ProductDeleted(removed bool)
	StockRemoved(quantity int)
}

type noopObserver struct{}

func (noopObserver) ProductSaved(string, int) {}
func (noopObserver) ProductDeleted(bool)      {}
func (noopObserver) StockRemoved(int)         {}

// Option configura dependencias opcionales del service.
type Option func(service *Service)

// WithLogger define el logger por defecto (si el contexto no trae uno).
func WithLogger(logger zerolog.Logger) Option {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithObserver conecta las métricas.
func WithObserver(observer Observer) Option {
	return func(service *Service) {
		if observer != nil {
			service.observer = observer
		}
	}
}

// Service contiene reglas de negocio del catálogo.
type Service struct {
	repository RepositoryAPI
	logger     zerolog.Logger
	observer   Observer
}

// NewService crea un service de productos.
func NewService(repository RepositoryAPI, options ...Option) *Service {
	service := &Service{
		repository: repository,
		logger:     zerolog.Nop(),
		observer:   noopObserver{},
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// ListAll devuelve todos los productos (vista pública, orden por id ascendente).
func (service *Service) ListAll(ctx context.Context) ([]Product, error) {
	products, err := service.repository.GetAll(ctx)
	if err != nil {
		return nil, wrapPersistence("list products", err)
	}
	return products, nil
}

// ListForAdmin devuelve los mismos productos con los más nuevos primero.
func (service *Service) ListForAdmin(ctx context.Context) ([]Product, error) {
	products, err := service.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(products, func(a, b Product) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return products, nil
}

// Get obtiene un producto por id.
func (service *Service) Get(ctx context.Context, id int64) (Product, error) {
	product, found, err := service.repository.GetByID(ctx, id)
	if err != nil {
		return Product{}, wrapPersistence("get product", err)
	}
	if !found {
		return Product{}, ErrorNotFound
	}
	return product, nil
}

// Save valida la submission y la persiste.
// Si ya existe un producto con el mismo nombre, la submission es reposición de stock:
// solo se suma la cantidad y el resto de los campos del registro existente queda igual.
// Lookup + insert/update corren en una transacción con lock por nombre.
func (service *Service) Save(ctx context.Context, submission Submission) (Product, Outcome, error) {
	logger := service.loggerFrom(ctx)

	valid, fieldErrors := Validate(submission)
	if !valid {
		service.observer.ProductSaved("rejected", 0)
		logger.Debug().Interface("errors", fieldErrors).Msg("product submission rejected")
		return Product{}, "", &ValidationError{Errors: fieldErrors}
	}

	stock, _ := NormalizeStock(submission.Stock)
	candidate := Product{
		Name:        submission.Name,
		Description: submission.Description,
		Details:     submission.Details,
		Price:       NormalizePrice(submission.Price),
		Quantity:    stock,
	}

	var (
		saved   Product
		outcome Outcome
	)
	err := service.repository.InTx(ctx, func(repository RepositoryAPI) error {
		if err := repository.LockName(ctx, candidate.Name); err != nil {
			return wrapPersistence("lock product name", err)
		}

		existing, found, err := repository.FindByName(ctx, candidate.Name)
		if err != nil {
			return wrapPersistence("find product by name", err)
		}

		if !found {
			saved, err = repository.Insert(ctx, candidate)
			if err != nil {
				return wrapPersistence("insert product", err)
			}
			outcome = OutcomeInserted
			return nil
		}

		merged, err := mergeQuantity(existing, candidate.Quantity)
		if err != nil {
			return err
		}
		saved, err = repository.Update(ctx, merged)
		if err != nil {
			return wrapPersistence("update product", err)
		}
		outcome = OutcomeMerged
		return nil
	})
	if err != nil {
		err = wrapPersistence("save product", err)
		if errors.Is(err, ErrorValidationFailed) {
			service.observer.ProductSaved("rejected", 0)
		} else {
			service.observer.ProductSaved("failed", 0)
			logger.Error().Err(err).Str("name", candidate.Name).Msg("product save failed")
		}
		return Product{}, "", err
	}

	service.observer.ProductSaved(string(outcome), candidate.Quantity)
	logger.Info().
		Int64("id", saved.ID).
		Str("name", saved.Name).
		Str("outcome", string(outcome)).
		Int("added", candidate.Quantity).
		Int("quantity", saved.Quantity).
		Msg("product saved")
	return saved, outcome, nil
}

// mergeQuantity suma stock al producto existente. El resultado no puede pasar
// el tope de la columna quantity.
func mergeQuantity(existing Product, added int) (Product, error) {
	if existing.Quantity > MaxQuantity-added {
		return Product{}, &ValidationError{Errors: []FieldError{{Field: FieldStock, Key: KeyStockLimitExceeded}}}
	}
	existing.Quantity += added
	return existing, nil
}

// Delete elimina un producto por id. Borrar un id inexistente no es error.
func (service *Service) Delete(ctx context.Context, id int64) error {
	removed, err := service.repository.Delete(ctx, id)
	if err != nil {
		return wrapPersistence("delete product", err)
	}

	service.observer.ProductDeleted(removed)
	service.loggerFrom(ctx).Info().Int64("id", id).Bool("removed", removed).Msg("product delete")
	return nil
}

// RemoveStock descuenta unidades (ej: al confirmar una orden).
// Si la cantidad llega a 0 el producto se borra: nunca queda un registro con quantity < 1.
// Devuelve el producto con la cantidad resultante.
func (service *Service) RemoveStock(ctx context.Context, id int64, quantity int) (Product, error) {
	if quantity < 1 {
		return Product{}, ErrorInvalidQuantity
	}

	var remaining Product
	err := service.repository.InTx(ctx, func(repository RepositoryAPI) error {
		product, found, err := repository.GetByID(ctx, id)
		if err != nil {
			return wrapPersistence("get product", err)
		}
		if !found {
			return ErrorNotFound
		}
		if quantity > product.Quantity {
			return ErrorInsufficientStock
		}

		product.Quantity -= quantity
		if product.Quantity == 0 {
			if _, err := repository.Delete(ctx, id); err != nil {
				return wrapPersistence("delete product", err)
			}
			remaining = product
			return nil
		}

		remaining, err = repository.Update(ctx, product)
		if err != nil {
			return wrapPersistence("update product", err)
		}
		return nil
	})
	if err != nil {
		return Product{}, wrapPersistence("remove stock", err)
	}

	service.observer.StockRemoved(quantity)
	service.loggerFrom(ctx).Info().
		Int64("id", id).
		Int("removed", quantity).
		Int("quantity", remaining.Quantity).
		Msg("product stock removed")
	return remaining, nil
}

// loggerFrom usa el logger del request (trae request_id) si existe.
func (service *Service) loggerFrom(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return &service.logger
}
