package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
)

// ErrEmptyQuery is returned when Lookup is called without search terms.
var ErrEmptyQuery = errors.New("empty search query")

// Client exposes the product lookups used to prefill ingredient nutrition.
type Client interface {
	Lookup(ctx context.Context, query string) ([]Product, error)
}

// Product is a search hit with nutriments converted to amounts per gram.
type Product struct {
	Name      string                  `json:"name"`
	Nutrition []models.NutrientAmount `json:"nutrition"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds an Open Food Facts client from cfg.
func NewClient(cfg config.OpenFoodFactsConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "pantry/1.0").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

type searchResponse struct {
	Products []struct {
		ProductName string     `json:"product_name"`
		Nutriments  nutriments `json:"nutriments"`
	} `json:"products"`
}

// nutriments are reported per 100 g.
type nutriments struct {
	EnergyKcal100g    json.Number `json:"energy-kcal_100g"`
	Proteins100g      json.Number `json:"proteins_100g"`
	Carbohydrates100g json.Number `json:"carbohydrates_100g"`
	Fat100g           json.Number `json:"fat_100g"`
	Fiber100g         json.Number `json:"fiber_100g"`
}

func (n nutriments) perGram() []models.NutrientAmount {
	fields := []struct {
		name  string
		value json.Number
	}{
		{models.CaloriesCategory, n.EnergyKcal100g},
		{"Protein", n.Proteins100g},
		{"Carbohydrate", n.Carbohydrates100g},
		{"Fat", n.Fat100g},
		{"Fiber", n.Fiber100g},
	}

	out := make([]models.NutrientAmount, 0, len(fields))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		v, err := f.value.Float64()
		if err != nil || v < 0 {
			continue
		}
		out = append(out, models.NutrientAmount{Name: f.name, AmountPerUnitMass: v / 100})
	}
	return out
}

// Lookup searches products matching query. Products without energy data are
// dropped.
func (c *APIClient) Lookup(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	result := new(searchResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
		}).
		SetResult(result).
		Get("/cgi/search.pl")
	if err != nil {
		return nil, fmt.Errorf("search open food facts: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("open food facts api error: status=%d", resp.StatusCode())
	}

	products := make([]Product, 0, len(result.Products))
	for _, p := range result.Products {
		if kcal, err := p.Nutriments.EnergyKcal100g.Float64(); err != nil || kcal <= 0 {
			continue
		}
		products = append(products, Product{
			Name:      strings.TrimSpace(p.ProductName),
			Nutrition: p.Nutriments.perGram(),
		})
	}
	return products, nil
}
