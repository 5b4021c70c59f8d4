package telematics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fleetlens/fleetlens/internal/errors"
	"github.com/fleetlens/fleetlens/internal/models"
)

// PageSize is the fixed identity-graph page size.
const PageSize = 50

const vehiclesQuery = `
query Vehicles($address: Address!, $first: Int!, $after: String) {
  vehicles(filterBy: { privileged: $address }, first: $first, after: $after) {
    totalCount
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      tokenId
      definition {
        make
        model
        year
      }
      imei
      mintedAt
    }
  }
}`

// identity-graph wire shapes

type vehiclesData struct {
	Vehicles vehicleConnection `json:"vehicles"`
}

type vehicleConnection struct {
	TotalCount int             `json:"totalCount"`
	PageInfo   models.PageInfo `json:"pageInfo"`
	Nodes      []vehicleNode   `json:"nodes"`
}

type vehicleNode struct {
	TokenID    int64             `json:"tokenId"`
	Definition vehicleDefinition `json:"definition"`
	IMEI       string            `json:"imei"`
	MintedAt   *time.Time        `json:"mintedAt"`
}

type vehicleDefinition struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// ListVehicles queries the identity graph for the vehicles the privileged
// address can access, one page of PageSize at a time. The cursor is opaque
// and echoed back verbatim from the previous page's endCursor; pass ""
// for the first page.
func (c *Client) ListVehicles(ctx context.Context, developerToken, address, after string) (*models.VehiclePage, error) {
	variables := map[string]interface{}{
		"address": address,
		"first":   PageSize,
	}
	if after != "" {
		variables["after"] = after
	}

	var data vehiclesData
	if err := c.queryGraphQL(ctx, c.snapshot().identity+"/query", developerToken, vehiclesQuery, variables, &data); err != nil {
		c.logger.ErrorWithContext(ctx, "vehicle listing failed", "error", err.Error())
		return nil, &errors.ErrUpstreamQuery{Operation: "vehicles", Err: err}
	}

	page := &models.VehiclePage{
		TotalCount: data.Vehicles.TotalCount,
		PageInfo:   data.Vehicles.PageInfo,
		Nodes:      make([]models.Vehicle, 0, len(data.Vehicles.Nodes)),
	}
	for _, node := range data.Vehicles.Nodes {
		page.Nodes = append(page.Nodes, normalizeVehicle(node))
	}

	return page, nil
}

// normalizeVehicle converts a raw identity-graph node into the stable
// display shape. Missing IMEI or mint date render as "N/A", never null.
func normalizeVehicle(node vehicleNode) models.Vehicle {
	parts := make([]string, 0, 3)
	if node.Definition.Make != "" {
		parts = append(parts, node.Definition.Make)
	}
	if node.Definition.Model != "" {
		parts = append(parts, node.Definition.Model)
	}
	if node.Definition.Year != 0 {
		parts = append(parts, strconv.Itoa(node.Definition.Year))
	}

	vehicle := models.Vehicle{
		TokenID:  node.TokenID,
		Type:     strings.Join(parts, " "),
		IMEI:     node.IMEI,
		MintedAt: models.NotAvailable,
	}
	if vehicle.Type == "" {
		vehicle.Type = models.NotAvailable
	}
	if vehicle.IMEI == "" {
		vehicle.IMEI = models.NotAvailable
	}
	if node.MintedAt != nil && !node.MintedAt.IsZero() {
		// Day granularity, no time component.
		vehicle.MintedAt = node.MintedAt.Format("1/2/2006")
	}

	return vehicle
}
