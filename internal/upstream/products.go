package upstream

import (
	"context"
	"net/url"
	"strconv"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type rawProduct struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Brand              string          `json:"brand"`
	Category           string          `json:"category"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images"`
	AvailabilityStatus string          `json:"availabilityStatus"`
	Reviews            []domain.Review `json:"reviews"`
}

type rawPage struct {
	Products []rawProduct `json:"products"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Skip     int          `json:"skip"`
}

type rawCategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (p rawProduct) toDomain() domain.Product {
	return domain.Product{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Brand:              p.Brand,
		Category:           p.Category,
		Thumbnail:          p.Thumbnail,
		Images:             p.Images,
		InStock:            p.AvailabilityStatus == "In Stock",
		Reviews:            p.Reviews,
	}
}

func (p rawPage) toDomain() domain.ProductPage {
	out := domain.ProductPage{
		Products: make([]domain.Product, 0, len(p.Products)),
		Total:    p.Total,
		Limit:    p.Limit,
		Skip:     p.Skip,
	}
	for _, item := range p.Products {
		out.Products = append(out.Products, item.toDomain())
	}
	return out
}

func pageQuery(limit, skip int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	return q
}

// Products lists one page of the catalog.
func (c *Client) Products(ctx context.Context, limit, skip int) (domain.ProductPage, error) {
	var raw rawPage
	if err := c.getJSON(ctx, "/products", pageQuery(limit, skip), &raw); err != nil {
		return domain.ProductPage{}, err
	}
	return raw.toDomain(), nil
}

func (c *Client) Product(ctx context.Context, id int) (domain.Product, error) {
	var raw rawProduct
	if err := c.getJSON(ctx, "/products/"+strconv.Itoa(id), nil, &raw); err != nil {
		return domain.Product{}, err
	}
	return raw.toDomain(), nil
}

func (c *Client) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	var raw rawPage
	if err := c.getJSON(ctx, "/products/category/"+url.PathEscape(slug), nil, &raw); err != nil {
		return nil, err
	}
	return raw.toDomain().Products, nil
}

// Search runs a full-text query over the catalog.
func (c *Client) Search(ctx context.Context, query string, limit, skip int) (domain.ProductPage, error) {
	q := pageQuery(limit, skip)
	q.Set("q", query)
	var raw rawPage
	if err := c.getJSON(ctx, "/products/search", q, &raw); err != nil {
		return domain.ProductPage{}, err
	}
	return raw.toDomain(), nil
}

// Categories returns category slugs.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var raw []rawCategory
	if err := c.getJSON(ctx, "/products/categories", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, cat := range raw {
		out = append(out, cat.Slug)
	}
	return out, nil
}
