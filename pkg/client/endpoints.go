package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agentcommerce/commerce-api-client/pkg/cache"
	"github.com/agentcommerce/commerce-api-client/pkg/recovery"
)

// GetProduct fetches a single product by ID. Results are cached; repeated
// calls within the TTL never hit the network.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	key := cache.Key{Endpoint: "products/" + productID}

	return cache.WithCache(ctx, c.cache, key.String(), func(ctx context.Context) (*Product, error) {
		return recovery.Execute(ctx, c.recovery, func(ctx context.Context) (*Product, error) {
			data, err := c.do(ctx, http.MethodGet, "/products/"+productID, nil, nil)
			if err != nil {
				return nil, err
			}

			var product Product
			if err := json.Unmarshal(data, &product); err != nil {
				return nil, fmt.Errorf("decode product: %w", err)
			}
			return &product, nil
		})
	})
}

// SearchProducts searches the product catalog. An empty pageToken requests
// the first page; the returned page carries the token for the next one.
func (c *Client) SearchProducts(ctx context.Context, query, pageToken string) (*ProductPage, error) {
	key := cache.Key{
		Endpoint:  "products/search",
		Params:    map[string]string{"q": query},
		PageToken: pageToken,
	}

	return cache.WithCache(ctx, c.cache, key.String(), func(ctx context.Context) (*ProductPage, error) {
		return recovery.Execute(ctx, c.recovery, func(ctx context.Context) (*ProductPage, error) {
			params := url.Values{}
			params.Set("q", query)
			if pageToken != "" {
				params.Set("page", pageToken)
			}

			data, err := c.do(ctx, http.MethodGet, "/products/search", params, nil)
			if err != nil {
				return nil, err
			}

			var page ProductPage
			if err := json.Unmarshal(data, &page); err != nil {
				return nil, fmt.Errorf("decode product page: %w", err)
			}
			return &page, nil
		})
	})
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	key := cache.Key{Endpoint: "orders/" + orderID}

	return cache.WithCache(ctx, c.cache, key.String(), func(ctx context.Context) (*Order, error) {
		return recovery.Execute(ctx, c.recovery, func(ctx context.Context) (*Order, error) {
			data, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, nil)
			if err != nil {
				return nil, err
			}

			var order Order
			if err := json.Unmarshal(data, &order); err != nil {
				return nil, fmt.Errorf("decode order: %w", err)
			}
			return &order, nil
		})
	})
}

// ListOrders lists orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, status, pageToken string) (*OrderPage, error) {
	key := cache.Key{Endpoint: "orders", PageToken: pageToken}
	if status != "" {
		key.Params = map[string]string{"status": status}
	}

	return cache.WithCache(ctx, c.cache, key.String(), func(ctx context.Context) (*OrderPage, error) {
		return recovery.Execute(ctx, c.recovery, func(ctx context.Context) (*OrderPage, error) {
			params := url.Values{}
			if status != "" {
				params.Set("status", status)
			}
			if pageToken != "" {
				params.Set("page", pageToken)
			}

			data, err := c.do(ctx, http.MethodGet, "/orders", params, nil)
			if err != nil {
				return nil, err
			}

			var page OrderPage
			if err := json.Unmarshal(data, &page); err != nil {
				return nil, fmt.Errorf("decode order page: %w", err)
			}
			return &page, nil
		})
	})
}

// UpdateInventory sets the available quantity for a SKU. Writes are never
// cached; a successful write invalidates every cached product read so the
// next lookup sees the new quantity.
func (c *Client) UpdateInventory(ctx context.Context, sku string, quantity int) (*Product, error) {
	product, err := recovery.Execute(ctx, c.recovery, func(ctx context.Context) (*Product, error) {
		data, err := c.do(ctx, http.MethodPut, "/inventory/"+sku, nil, InventoryUpdate{Quantity: quantity})
		if err != nil {
			return nil, err
		}

		var product Product
		if err := json.Unmarshal(data, &product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		return &product, nil
	})
	if err != nil {
		return nil, err
	}

	pattern := cache.Key{Endpoint: "products"}.Prefix()
	removed := c.cache.DeletePattern(ctx, pattern)
	c.logger.Debug().
		Str("sku", sku).
		Int("invalidated", removed).
		Msg("Inventory updated, product cache invalidated")

	return product, nil
}

// pageEnvelope extracts the pagination token from any list response.
type pageEnvelope struct {
	NextPageToken string `json:"nextPageToken"`
}

// FetchPage implements pagination.PageFetcher so a Fetcher can walk every
// page of a list endpoint through this client.
func (c *Client) FetchPage(ctx context.Context, endpoint, pageToken string) ([]byte, string, error) {
	params := url.Values{}
	if pageToken != "" {
		params.Set("page", pageToken)
	}

	data, err := recovery.Execute(ctx, c.recovery, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, endpoint, params, nil)
	})
	if err != nil {
		return nil, "", err
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, "", fmt.Errorf("decode page envelope: %w", err)
	}

	return data, envelope.NextPageToken, nil
}
