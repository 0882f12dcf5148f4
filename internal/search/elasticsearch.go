package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Index names, prefixed by config.FormatIndex
const (
	IndexProductionOrders = "production_orders"
	IndexDispatches       = "dispatches"
)

// ErrDisabled is returned by Search when Elasticsearch is not configured
var ErrDisabled = errors.New("search is disabled")

// Indexer is the search behaviour services depend on
type Indexer interface {
	IndexProductionOrder(ctx context.Context, order *models.ProductionOrder) error
	IndexDispatch(ctx context.Context, dispatch *models.Dispatch) error
	Search(ctx context.Context, tenantID uuid.UUID, index, query string, size int) ([]map[string]interface{}, error)
}

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client  *elasticsearch.Client
	config  config.ElasticConfig
	enabled bool
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	if !cfg.Enabled {
		return &ElasticClient{config: cfg}, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return &ElasticClient{config: cfg}, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client:  client,
		config:  cfg,
		enabled: true,
	}, nil
}

// Enabled reports whether the client talks to a cluster
func (c *ElasticClient) Enabled() bool {
	return c != nil && c.enabled
}

// Ping checks the cluster is reachable
func (c *ElasticClient) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	res, err := esapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to ping Elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("Elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// ProductionOrderDocument is the indexed shape of an order
func ProductionOrderDocument(order *models.ProductionOrder) map[string]interface{} {
	doc := map[string]interface{}{
		"id":                 order.ID.String(),
		"tenant_id":          order.TenantID.String(),
		"order_number":       order.OrderNumber,
		"fabric_type":        order.FabricType,
		"color":              order.Color,
		"design":             order.Design,
		"status":             order.Status,
		"priority":           order.Priority,
		"current_stage":      order.CurrentStage,
		"planned_quantity":   order.PlannedQuantity.InexactFloat64(),
		"completed_quantity": order.CompletedQuantity.InexactFloat64(),
		"progress":           order.Progress.InexactFloat64(),
		"notes":              order.Notes,
		"created_at":         order.CreatedAt,
	}
	if order.CustomerID != nil {
		doc["customer_id"] = order.CustomerID.String()
	}
	if order.Customer != nil {
		doc["customer_name"] = order.Customer.Name
	}
	return doc
}

// DispatchDocument is the indexed shape of a dispatch
func DispatchDocument(dispatch *models.Dispatch) map[string]interface{} {
	doc := map[string]interface{}{
		"id":              dispatch.ID.String(),
		"tenant_id":       dispatch.TenantID.String(),
		"dispatch_number": dispatch.DispatchNumber,
		"invoice_number":  dispatch.InvoiceNumber,
		"customer_id":     dispatch.CustomerID.String(),
		"status":          dispatch.Status,
		"vehicle_number":  dispatch.VehicleNumber,
		"driver_name":     dispatch.DriverName,
		"total_meters":    dispatch.TotalMeters.InexactFloat64(),
		"total_amount":    dispatch.TotalAmount.InexactFloat64(),
		"created_at":      dispatch.CreatedAt,
	}
	if dispatch.Customer != nil {
		doc["customer_name"] = dispatch.Customer.Name
	}
	return doc
}

// IndexProductionOrder indexes an order
func (c *ElasticClient) IndexProductionOrder(ctx context.Context, order *models.ProductionOrder) error {
	return c.index(ctx, IndexProductionOrders, order.ID.String(), ProductionOrderDocument(order))
}

// IndexDispatch indexes a dispatch
func (c *ElasticClient) IndexDispatch(ctx context.Context, dispatch *models.Dispatch) error {
	return c.index(ctx, IndexDispatches, dispatch.ID.String(), DispatchDocument(dispatch))
}

func (c *ElasticClient) index(ctx context.Context, index, id string, doc map[string]interface{}) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	req := esapi.IndexRequest{
		Index:      config.FormatIndex(c.config, index),
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError(res.Body, "index")
	}

	log.Debug().Str("index", index).Str("id", id).Msg("document indexed")
	return nil
}

// BuildQuery builds a tenant-filtered multi_match query
func BuildQuery(tenantID uuid.UUID, query string, size int) map[string]interface{} {
	if size <= 0 || size > 100 {
		size = 20
	}
	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"order_number^3", "dispatch_number^3", "invoice_number^2", "customer_name^2", "fabric_type", "color", "design", "vehicle_number", "driver_name", "notes"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"tenant_id.keyword": tenantID.String()},
					},
				},
			},
		},
	}
}

// Search runs a query against one index and returns the matched sources
func (c *ElasticClient) Search(ctx context.Context, tenantID uuid.UUID, index, query string, size int) ([]map[string]interface{}, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(BuildQuery(tenantID, query, size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{config.FormatIndex(c.config, index)},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(res.Body, "search")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	docs := make([]map[string]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func responseError(body io.Reader, op string) error {
	var e map[string]interface{}
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		return errors.Wrapf(err, "failed to parse Elasticsearch %s error response", op)
	}
	return errors.Errorf("Elasticsearch %s error: %v", op, e)
}
