package handlers

import (
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/ethpandaops/datasage/pkg/search"
	"github.com/gofiber/fiber/v3"
)

type tagPayload struct {
	Name string `json:"name"`
}

type addMetricsPayload struct {
	MetricSlugs []string `json:"metricSlugs"`
}

// ListMetricSets handles GET /api/v1/metric-sets
func (s *Server) ListMetricSets(c fiber.Ctx) error {
	q, err := metricSetQueryParams(c)
	if err != nil {
		return err
	}

	state := s.registry.Snapshot()
	sets := search.FilterMetricSets(state.MetricSets, q)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"metricSets": sets,
		"total":      len(sets),
	})
}

// CreateMetricSet handles POST /api/v1/metric-sets
func (s *Server) CreateMetricSet(c fiber.Ctx) error {
	var payload registry.MetricSetPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	set, err := s.registry.CreateMetricSet(payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(set)
}

// UpdateMetricSet handles PUT /api/v1/metric-sets/{id}
func (s *Server) UpdateMetricSet(c fiber.Ctx) error {
	var payload registry.MetricSetPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	set, err := s.registry.UpdateMetricSet(c.Params("id"), payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(set)
}

// AddMetricsToSet handles POST /api/v1/metric-sets/{id}/metrics
func (s *Server) AddMetricsToSet(c fiber.Ctx) error {
	var payload addMetricsPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	set, err := s.registry.AddMetricsToSet(c.Params("id"), payload.MetricSlugs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(set)
}

// DeleteMetricSet handles DELETE /api/v1/metric-sets/{id}
func (s *Server) DeleteMetricSet(c fiber.Ctx) error {
	if err := s.registry.DeleteMetricSet(c.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListTags handles GET /api/v1/tags
func (s *Server) ListTags(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"tags": s.registry.Tags(),
	})
}

// CreateTag handles POST /api/v1/tags
func (s *Server) CreateTag(c fiber.Ctx) error {
	var payload tagPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	tag, err := s.registry.CreateTag(payload.Name)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(tag)
}

// RenameTag handles PUT /api/v1/tags/{id}
func (s *Server) RenameTag(c fiber.Ctx) error {
	var payload tagPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	tag, err := s.registry.RenameTag(c.Params("id"), payload.Name)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(tag)
}

// DeleteTag handles DELETE /api/v1/tags/{id}
func (s *Server) DeleteTag(c fiber.Ctx) error {
	if err := s.registry.DeleteTag(c.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetStats handles GET /api/v1/stats
func (s *Server) GetStats(c fiber.Ctx) error {
	state := s.registry.Snapshot()

	return c.Status(fiber.StatusOK).JSON(search.HomeStats(&state))
}
