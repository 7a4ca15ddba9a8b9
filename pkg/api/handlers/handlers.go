// Package handlers implements the request handlers of the DataSage API
package handlers

import (
	"github.com/ethpandaops/datasage/pkg/heat"
	"github.com/ethpandaops/datasage/pkg/profile"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// Server serves the catalog held by a registry
type Server struct {
	registry *registry.Registry
	renderer *profile.Renderer
	heat     *heat.Tracker
	log      logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(reg *registry.Registry, renderer *profile.Renderer, tracker *heat.Tracker, log logrus.FieldLogger) *Server {
	return &Server{
		registry: reg,
		renderer: renderer,
		heat:     tracker,
		log:      log.WithField("component", "api.handlers"),
	}
}

// RegisterRoutes mounts every handler on router
func (s *Server) RegisterRoutes(router fiber.Router) {
	router.Get("/metrics", s.ListMetrics)
	router.Post("/metrics", s.CreateMetric)
	router.Get("/metrics/facets", s.GetMetricFacets)
	router.Get("/metrics/:slug", s.GetMetric)
	router.Put("/metrics/:slug", s.UpdateMetric)
	router.Delete("/metrics/:slug", s.DeleteMetric)
	router.Get("/metrics/:slug/profile", s.GetMetricProfile)
	router.Get("/metrics/:slug/lineage", s.GetMetricLineage)
	router.Get("/metrics/:slug/candidates", s.GetMetricCandidates)
	router.Post("/metrics/:slug/derive", s.DeriveMetric)
	router.Get("/lineage", s.GetLineage)

	router.Get("/dimensions", s.ListDimensions)
	router.Post("/dimensions", s.CreateDimension)
	router.Put("/dimensions/:id", s.UpdateDimension)
	router.Delete("/dimensions/:id", s.DeleteDimension)
	router.Get("/dimensions/:dimensionSlug/bindings/:metricSlug", s.ValidateBinding)
	router.Get("/dimension-tree", s.GetDimensionTree)

	router.Get("/categories", s.ListCategories)
	router.Post("/categories", s.CreateCategory)
	router.Get("/domains", s.ListDomains)
	router.Post("/domains", s.CreateDomain)

	router.Get("/metric-sets", s.ListMetricSets)
	router.Post("/metric-sets", s.CreateMetricSet)
	router.Put("/metric-sets/:id", s.UpdateMetricSet)
	router.Delete("/metric-sets/:id", s.DeleteMetricSet)
	router.Post("/metric-sets/:id/metrics", s.AddMetricsToSet)

	router.Get("/tags", s.ListTags)
	router.Post("/tags", s.CreateTag)
	router.Put("/tags/:id", s.RenameTag)
	router.Delete("/tags/:id", s.DeleteTag)

	router.Get("/stats", s.GetStats)
}
