package handlers

import (
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/derive"
	"github.com/ethpandaops/datasage/pkg/lineage"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/ethpandaops/datasage/pkg/search"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ListMetrics handles GET /api/v1/metrics
func (s *Server) ListMetrics(c fiber.Ctx) error {
	q, err := metricQueryParams(c)
	if err != nil {
		return err
	}

	state := s.registry.Snapshot()
	s.heat.Apply(c.Context(), state.Metrics)

	metrics := search.FilterMetrics(state.Metrics, state.MetricSets, q)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"metrics": metrics,
		"total":   len(metrics),
	})
}

// GetMetricFacets handles GET /api/v1/metrics/facets
func (s *Server) GetMetricFacets(c fiber.Ctx) error {
	var domain string
	if err := bindQuery(c, queryParam{"domain", &domain}); err != nil {
		return err
	}

	metrics := search.FilterMetrics(s.registry.Metrics(), nil, search.MetricQuery{Domain: domain})

	return c.Status(fiber.StatusOK).JSON(search.FacetOptions(metrics))
}

// GetMetric handles GET /api/v1/metrics/{slug}
func (s *Server) GetMetric(c fiber.Ctx) error {
	metric, err := s.registry.Metric(c.Params("slug"))
	if err != nil {
		return toHTTPError(err)
	}

	metrics := []catalog.Metric{metric}
	s.heat.Apply(c.Context(), metrics)

	return c.Status(fiber.StatusOK).JSON(metrics[0])
}

// GetMetricProfile handles GET /api/v1/metrics/{slug}/profile. Every call
// counts as a view.
func (s *Server) GetMetricProfile(c fiber.Ctx) error {
	metric, err := s.registry.Metric(c.Params("slug"))
	if err != nil {
		return toHTTPError(err)
	}

	metric.Heat = s.heat.View(c.Context(), &metric)

	text, err := s.renderer.Render(&metric)
	if err != nil {
		s.log.WithError(err).WithField("metric", metric.Slug).Error("Failed to render metric profile")
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.Status(fiber.StatusOK).SendString(text)
}

func (s *Server) buildLineage() (*lineage.Graph, error) {
	graph := lineage.NewGraph()

	rejected, err := graph.Build(s.registry.Metrics())
	if err != nil {
		return nil, err
	}

	for _, edge := range rejected {
		s.log.WithFields(logrus.Fields{
			"from":   edge.From,
			"to":     edge.To,
			"reason": edge.Reason,
		}).Debug("Skipped cyclic lineage edge")
	}

	return graph, nil
}

// GetMetricLineage handles GET /api/v1/metrics/{slug}/lineage
func (s *Server) GetMetricLineage(c fiber.Ctx) error {
	graph, err := s.buildLineage()
	if err != nil {
		return err
	}

	result, err := graph.Lineage(c.Params("slug"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// GetLineage handles GET /api/v1/lineage
func (s *Server) GetLineage(c fiber.Ctx) error {
	var format string
	if err := bindQuery(c, queryParam{"format", &format}); err != nil {
		return err
	}

	graph, err := s.buildLineage()
	if err != nil {
		return err
	}

	switch format {
	case "", "json":
		return c.Status(fiber.StatusOK).JSON(graph.Info())
	case "dot":
		c.Set(fiber.HeaderContentType, "text/vnd.graphviz; charset=utf-8")
		return c.Status(fiber.StatusOK).SendString(graph.DOT())
	default:
		return fiber.NewError(fiber.StatusBadRequest, "format must be json or dot")
	}
}

// GetMetricCandidates handles GET /api/v1/metrics/{slug}/candidates
func (s *Server) GetMetricCandidates(c fiber.Ctx) error {
	base, err := s.registry.Metric(c.Params("slug"))
	if err != nil {
		return toHTTPError(err)
	}

	candidates := search.OtherMetricCandidates(s.registry.Metrics(), &base)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"metrics": candidates,
		"total":   len(candidates),
	})
}

// CreateMetric handles POST /api/v1/metrics
func (s *Server) CreateMetric(c fiber.Ctx) error {
	var payload registry.NewMetricPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	metric, err := s.registry.RegisterMetric(payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(metric)
}

// UpdateMetric handles PUT /api/v1/metrics/{slug}
func (s *Server) UpdateMetric(c fiber.Ctx) error {
	var payload registry.NewMetricPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	metric, err := s.registry.UpdateMetric(c.Params("slug"), payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(metric)
}

// DeleteMetric handles DELETE /api/v1/metrics/{slug}
func (s *Server) DeleteMetric(c fiber.Ctx) error {
	if err := s.registry.DeleteMetric(c.Params("slug")); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeriveMetric handles POST /api/v1/metrics/{slug}/derive
func (s *Server) DeriveMetric(c fiber.Ctx) error {
	spec, err := derive.DecodeSpec(c.Body())
	if err != nil {
		return toHTTPError(err)
	}

	metric, err := s.registry.DeriveMetric(c.Params("slug"), spec)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(metric)
}
