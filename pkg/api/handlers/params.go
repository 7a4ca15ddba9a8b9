package handlers

import (
	"fmt"
	"net/url"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/search"
	"github.com/gofiber/fiber/v3"
	"github.com/oapi-codegen/runtime"
)

type queryParam struct {
	name string
	dest interface{}
}

// bindQuery binds optional form style query parameters
func bindQuery(c fiber.Ctx, params ...queryParam) error {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid query string: %s", err))
	}

	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, values, p.dest); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid format for parameter %s: %s", p.name, err))
		}
	}

	return nil
}

func metricQueryParams(c fiber.Ctx) (search.MetricQuery, error) {
	var (
		q                           search.MetricQuery
		hasQuery, status, sort, dir string
	)

	err := bindQuery(c,
		queryParam{"domain", &q.Domain},
		queryParam{"q", &q.Query},
		queryParam{"category", &q.Category},
		queryParam{"businessOwner", &q.BusinessOwner},
		queryParam{"techOwner", &q.TechOwner},
		queryParam{"hasQuery", &hasQuery},
		queryParam{"status", &status},
		queryParam{"metricSetId", &q.MetricSetID},
		queryParam{"tag", &q.TagIDs},
		queryParam{"sort", &sort},
		queryParam{"direction", &dir},
	)
	if err != nil {
		return q, err
	}

	q.HasQuery = search.HasQueryFilter(hasQuery)
	q.Status = catalog.Status(status)
	q.SortField = search.SortField(sort)
	q.SortDirection = search.SortDirection(dir)

	if err := q.Validate(); err != nil {
		return q, toHTTPError(err)
	}

	return q, nil
}

func metricSetQueryParams(c fiber.Ctx) (search.MetricSetQuery, error) {
	var (
		q         search.MetricSetQuery
		sort, dir string
	)

	err := bindQuery(c,
		queryParam{"domain", &q.Domain},
		queryParam{"q", &q.Query},
		queryParam{"tag", &q.TagIDs},
		queryParam{"sort", &sort},
		queryParam{"direction", &dir},
	)
	if err != nil {
		return q, err
	}

	q.SortField = catalog.TimestampField(sort)
	q.SortDirection = search.SortDirection(dir)

	if err := q.Validate(); err != nil {
		return q, toHTTPError(err)
	}

	return q, nil
}
