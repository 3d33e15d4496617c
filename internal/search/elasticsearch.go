package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/EduardoVBF/frota-mirim-sub000/config"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexFuelSupply indexes a fuel supply record for reporting queries
func (c *ElasticClient) IndexFuelSupply(ctx context.Context, supply *model.FuelSupply, vehicle *model.Vehicle) error {
	if c == nil {
		return nil
	}

	log.Info().Str("supply_id", supply.UUID).Msg("indexing fuel supply")

	doc := map[string]interface{}{
		"id":                   supply.UUID,
		"vehicle_id":           supply.VehicleID,
		"vehicle_plate":        vehicle.Plate,
		"supplied_at":          supply.SuppliedAt,
		"km":                   supply.Km,
		"liters":               supply.Liters,
		"price_per_liter":      supply.PricePerLiter,
		"total_price":          supply.TotalPrice,
		"fuel_type":            supply.FuelType,
		"station_kind":         supply.StationKind,
		"station_name":         supply.StationName,
		"full_tank":            supply.FullTank,
		"average_km_per_liter": supply.AverageKmPerLiter,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal fuel supply document")
	}

	req := esapi.IndexRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: supply.UUID,
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index fuel supply %s: %s", supply.UUID, res.Status())
	}

	return nil
}

// DeleteFuelSupply removes a fuel supply document from the index
func (c *ElasticClient) DeleteFuelSupply(ctx context.Context, supplyID string) error {
	if c == nil {
		return nil
	}

	req := esapi.DeleteRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: supplyID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// A missing document is fine; the record may never have been indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("failed to delete fuel supply %s: %s", supplyID, res.Status())
	}

	return nil
}
