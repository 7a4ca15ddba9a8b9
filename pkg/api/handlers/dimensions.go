package handlers

import (
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/ethpandaops/datasage/pkg/search"
	"github.com/ethpandaops/datasage/pkg/tree"
	"github.com/gofiber/fiber/v3"
)

func matchesDimension(d *catalog.Dimension, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}

	if strings.Contains(strings.ToLower(d.Name), keyword) || strings.Contains(strings.ToLower(d.Slug), keyword) {
		return true
	}

	for _, alias := range d.Aliases {
		if strings.Contains(strings.ToLower(alias), keyword) {
			return true
		}
	}

	return false
}

// ListDimensions handles GET /api/v1/dimensions
func (s *Server) ListDimensions(c fiber.Ctx) error {
	var domain, keyword string
	if err := bindQuery(c, queryParam{"domain", &domain}, queryParam{"q", &keyword}); err != nil {
		return err
	}

	state := s.registry.Snapshot()
	dimensions := make([]catalog.Dimension, 0, len(state.Dimensions))

	for _, d := range search.DimensionsForDomain(state.Dimensions, domain) {
		if matchesDimension(&d, keyword) {
			dimensions = append(dimensions, d)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"dimensions": dimensions,
		"total":      len(dimensions),
	})
}

// CreateDimension handles POST /api/v1/dimensions
func (s *Server) CreateDimension(c fiber.Ctx) error {
	var payload registry.DimensionPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	dimension, err := s.registry.CreateDimension(payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(dimension)
}

// UpdateDimension handles PUT /api/v1/dimensions/{id}
func (s *Server) UpdateDimension(c fiber.Ctx) error {
	var payload registry.DimensionPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	dimension, err := s.registry.UpdateDimension(c.Params("id"), payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(dimension)
}

// DeleteDimension handles DELETE /api/v1/dimensions/{id}
func (s *Server) DeleteDimension(c fiber.Ctx) error {
	if err := s.registry.DeleteDimension(c.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateBinding handles GET /api/v1/dimensions/{dimensionSlug}/bindings/{metricSlug}
func (s *Server) ValidateBinding(c fiber.Ctx) error {
	result, err := s.registry.ValidateBinding(c.Params("dimensionSlug"), c.Params("metricSlug"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// GetDimensionTree handles GET /api/v1/dimension-tree. With a domain the
// tree is pruned to the dimensions valid in it.
func (s *Server) GetDimensionTree(c fiber.Ctx) error {
	var domain string
	if err := bindQuery(c, queryParam{"domain", &domain}); err != nil {
		return err
	}

	state := s.registry.Snapshot()

	var allowed map[string]struct{}
	if domain != "" && domain != search.All {
		allowed = search.DimensionSlugs(search.DimensionsForDomain(state.Dimensions, domain))
	}

	nodes := tree.FilterByDimensions(state.DimensionTree, allowed)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"nodes":     nodes,
		"summaries": tree.Summaries(nodes),
	})
}

// ListCategories handles GET /api/v1/categories
func (s *Server) ListCategories(c fiber.Ctx) error {
	state := s.registry.Snapshot()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"categories": state.Categories,
		"paths":      tree.FlattenCategories(state.Categories),
	})
}

// CreateCategory handles POST /api/v1/categories
func (s *Server) CreateCategory(c fiber.Ctx) error {
	var payload registry.CategoryPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	category, err := s.registry.CreateCategory(payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}

// ListDomains handles GET /api/v1/domains
func (s *Server) ListDomains(c fiber.Ctx) error {
	var permitted bool
	if err := bindQuery(c, queryParam{"permitted", &permitted}); err != nil {
		return err
	}

	state := s.registry.Snapshot()

	domains := search.UniqueDomains(state.Domains)
	if permitted {
		domains = search.PermittedDomains(state.Domains)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"domains": domains,
		"default": search.DefaultDomain(state.Domains),
	})
}

// CreateDomain handles POST /api/v1/domains
func (s *Server) CreateDomain(c fiber.Ctx) error {
	var payload registry.DomainPayload
	if err := c.Bind().Body(&payload); err != nil {
		return ErrInvalidBody
	}

	domain, err := s.registry.CreateDomain(payload)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(domain)
}
