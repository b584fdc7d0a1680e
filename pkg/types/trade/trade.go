// Package trade defines the wire-level record types returned by the backend
// query service and the summary statistics derived from them.  The shapes
// mirror the backend's JSON contract field for field.
package trade

// Direction selects which side of a trade flow a filter applies to.
type Direction string

const (
	DirectionBoth   Direction = "both"
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// Valid reports whether d is one of the recognised direction values.
// The empty string is accepted and treated as DirectionBoth.
func (d Direction) Valid() bool {
	switch d {
	case "", DirectionBoth, DirectionImport, DirectionExport:
		return true
	}
	return false
}

// Shipment is one aggregated shipment row for the trade map, as returned by
// the backend's /shipments endpoint.
type Shipment struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Date  string `json:"date,omitempty"` // YYYY-MM-DD, derived by the backend

	HSCode   string `json:"hs_code"`
	Industry string `json:"industry,omitempty"`

	OriginCountryCode      string `json:"origin_country_code"`
	DestinationCountryCode string `json:"destination_country_code"`
	CountryOfOrigin        string `json:"country_of_origin,omitempty"`
	DestinationCountry     string `json:"destination_country,omitempty"`

	ExporterName string `json:"exporter_name,omitempty"`
	ImporterName string `json:"importer_name,omitempty"`

	Weight        float64 `json:"weight,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	TotalValueUSD float64 `json:"total_value_usd,omitempty"`
	TradeCount    int     `json:"trade_count"`
}

// CountryMonthStat is one pre-aggregated country/month statistics row from
// the backend's /country-trade-stats/monthly endpoint.
type CountryMonthStat struct {
	HSCode         string  `json:"hs_code"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	CountryCode    string  `json:"country_code"`
	Industry       string  `json:"industry,omitempty"`
	Weight         float64 `json:"weight,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	SumOfUSD       float64 `json:"sum_of_usd"`
	TradeCount     int     `json:"trade_count"`
	AmountSharePct float64 `json:"amount_share_pct"`
}

// Country is one reference-data row from /country-locations.
type Country struct {
	Code      string  `json:"country_code"`
	Name      string  `json:"country_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Continent string  `json:"continent,omitempty"`
}

// Category is one reference-data row from /hs-code-categories: a 2-digit HS
// prefix with its display metadata.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// Company is one reference-data row from /companies, backing the company-name
// selector.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name,omitempty"`
	City        string `json:"city,omitempty"`
	Type        string `json:"type,omitempty"` // importer, exporter, both
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Summary holds the derived statistics the rendering layer shows alongside a
// final result: distinct countries and categories touched by the flows, the
// flow count, and the total traded value.
type Summary struct {
	DistinctCountries  int     `json:"distinct_countries"`
	DistinctCategories int     `json:"distinct_categories"`
	FlowCount          int     `json:"flow_count"`
	TotalValueUSD      float64 `json:"total_value_usd"`
}

// Summarize computes a Summary from a slice of shipment rows.  It is a pure
// function: summarising the same rows twice yields identical results, which
// is what makes cache-hit replays safe.
func Summarize(rows []Shipment) Summary {
	countries := make(map[string]struct{})
	categories := make(map[string]struct{})
	var total float64
	for _, r := range rows {
		if r.OriginCountryCode != "" {
			countries[r.OriginCountryCode] = struct{}{}
		}
		if r.DestinationCountryCode != "" {
			countries[r.DestinationCountryCode] = struct{}{}
		}
		if len(r.HSCode) >= 2 {
			categories[r.HSCode[:2]] = struct{}{}
		}
		total += r.TotalValueUSD
	}
	return Summary{
		DistinctCountries:  len(countries),
		DistinctCategories: len(categories),
		FlowCount:          len(rows),
		TotalValueUSD:      total,
	}
}
