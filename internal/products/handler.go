package products

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/Lelo88/catalog-admin-golang/internal/httpx"
)

// maxBodyBytes limita el tamaño del formulario de alta.
const maxBodyBytes = 1 << 20

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	ListAll(ctx context.Context) ([]Product, error)
	ListForAdmin(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Save(ctx context.Context, submission Submission) (Product, Outcome, error)
	Delete(ctx context.Context, id int64) error
}

// Localizer resuelve claves de mensaje al idioma del request.
type Localizer interface {
	Match(acceptLanguage string) string
	Lookup(lang, key string) string
}

// Handler HTTP para productos.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service   ServiceAPI
	localizer Localizer
}

// NewHandler crea un handler de productos.
func NewHandler(service ServiceAPI, localizer Localizer) *Handler {
	return &Handler{service: service, localizer: localizer}
}

// List maneja GET /products.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	handler.list(writer, request, handler.service.ListAll)
}

// AdminList maneja GET /admin/products (más nuevos primero).
func (handler *Handler) AdminList(writer http.ResponseWriter, request *http.Request) {
	handler.list(writer, request, handler.service.ListForAdmin)
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request, listFn func(ctx context.Context) ([]Product, error)) {
	products, err := listFn(request.Context())
	if err != nil {
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}

	httpx.OK(writer, request, http.StatusOK, map[string]any{
		"products": products,
		"total":    len(products),
	})
}

// GetByID maneja GET /products/{id}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := parseID(writer, request)
	if !ok {
		return
	}

	product, err := handler.service.Get(request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrorNotFound):
			httpx.Fail(writer, request, http.StatusNotFound, "not_found", "product not found")
		default:
			httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
		}
		return
	}

	httpx.OK(writer, request, http.StatusOK, product)
}

// Create maneja POST /products.
// 201 si el producto es nuevo, 200 si se sumó stock a uno existente.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	submission, ok := decodeSubmission(writer, request)
	if !ok {
		return
	}

	product, outcome, err := handler.service.Save(request.Context(), submission)
	if err != nil {
		var validationError *ValidationError
		switch {
		case errors.As(err, &validationError):
			httpx.FailWithDetails(writer, request, http.StatusUnprocessableEntity, "validation_failed", "invalid product data", handler.localize(request, validationError.Errors))
		default:
			// No filtramos detalles internos.
			httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
		}
		return
	}

	status := http.StatusCreated
	if outcome == OutcomeMerged {
		status = http.StatusOK
	}
	httpx.OK(writer, request, status, map[string]any{
		"product": product,
		"outcome": outcome,
	})
}

// Delete maneja DELETE /products/{id}. Es idempotente: un id inexistente también da 204.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, ok := parseID(writer, request)
	if !ok {
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}

	// 204 No Content: respuesta vacía.
	writer.WriteHeader(http.StatusNoContent)
}

// decodeSubmission lee el body con gjson: cada campo puede venir como string o número
// (ej: "stock": 10 o "stock": "10") y se toma siempre como texto.
func decodeSubmission(writer http.ResponseWriter, request *http.Request) (Submission, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxBodyBytes))
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return Submission{}, false
	}
	if !gjson.ValidBytes(body) {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return Submission{}, false
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "JSON body must be an object")
		return Submission{}, false
	}

	return Submission{
		Name:        fieldText(parsed.Get("name")),
		Description: fieldText(parsed.Get("description")),
		Details:     fieldText(parsed.Get("details")),
		Stock:       fieldText(parsed.Get("stock")),
		Price:       fieldText(parsed.Get("price")),
	}, true
}

// fieldText devuelve el texto tal cual vino. Para números usamos Raw
// para no perder ceros (gjson formatea 1.50 como 1.5).
func fieldText(result gjson.Result) string {
	if result.Type == gjson.Number {
		return result.Raw
	}
	return result.String()
}

func (handler *Handler) localize(request *http.Request, fieldErrors []FieldError) []httpx.FieldDetail {
	lang := handler.localizer.Match(request.Header.Get("Accept-Language"))

	details := make([]httpx.FieldDetail, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		details = append(details, httpx.FieldDetail{
			Field:   fieldErr.Field,
			Code:    fieldErr.Key,
			Message: handler.localizer.Lookup(lang, fieldErr.Key),
		})
	}
	return details
}

// parseID valida que el id sea un entero positivo (en DB es bigserial).
func parseID(writer http.ResponseWriter, request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || id < 1 {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
