// Package metrics expone contadores Prometheus del catálogo y el handler /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Catalog agrupa las métricas de negocio. Cada instancia usa su propio registry
// para que los tests no choquen con registros globales.
type Catalog struct {
	registry *prometheus.Registry

	saves   *prometheus.CounterVec
	deletes *prometheus.CounterVec
	stock   *prometheus.CounterVec
}

// New crea y registra las métricas del catálogo.
func New() *Catalog {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalog := &Catalog{
		registry: registry,
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "products",
			Name:      "saves_total",
			Help:      "Product submissions by outcome.",
		}, []string{"outcome"}), // "inserted" | "merged" | "rejected" | "failed"
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "products",
			Name:      "deletes_total",
			Help:      "Product deletions by result.",
		}, []string{"result"}), // "removed" | "absent"
		stock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "products",
			Name:      "stock_units_total",
			Help:      "Stock units added or removed.",
		}, []string{"direction"}), // "in" | "out"
	}

	registry.MustRegister(catalog.saves, catalog.deletes, catalog.stock)
	return catalog
}

// ProductSaved registra el resultado de un Save y las unidades que entraron.
func (catalog *Catalog) ProductSaved(outcome string, quantity int) {
	catalog.saves.WithLabelValues(outcome).Inc()
	if quantity > 0 {
		catalog.stock.WithLabelValues("in").Add(float64(quantity))
	}
}

// ProductDeleted registra un Delete, haya o no borrado una fila.
func (catalog *Catalog) ProductDeleted(removed bool) {
	result := "absent"
	if removed {
		result = "removed"
	}
	catalog.deletes.WithLabelValues(result).Inc()
}

// StockRemoved registra unidades que salieron del catálogo.
func (catalog *Catalog) StockRemoved(quantity int) {
	catalog.stock.WithLabelValues("out").Add(float64(quantity))
}

// Handler sirve el formato de exposición de Prometheus.
func (catalog *Catalog) Handler() http.Handler {
	return promhttp.HandlerFor(catalog.registry, promhttp.HandlerOpts{})
}
