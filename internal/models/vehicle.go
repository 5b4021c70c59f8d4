package models

// NotAvailable is rendered for missing vehicle fields. The browser client
// relies on the literal string, never null.
const NotAvailable = "N/A"

// Vehicle is the normalized display shape of a vendor identity-graph node.
// Identity is TokenID.
type Vehicle struct {
	TokenID  int64  `json:"tokenId"`
	Type     string `json:"type"` // "<make> <model> <year>"
	IMEI     string `json:"imei"`
	MintedAt string `json:"mintedAt"` // locale date string, day granularity
}

// PageInfo carries the vendor's opaque pagination cursor.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// VehiclePage is one page of the vehicle listing.
type VehiclePage struct {
	TotalCount int       `json:"totalCount"`
	PageInfo   PageInfo  `json:"pageInfo"`
	Nodes      []Vehicle `json:"nodes"`
}
