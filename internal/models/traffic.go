package models

// Traffic index identity
const (
	TrafficIndexName = "traffic_index"
	TrafficTypeName  = "traffic_type"
)

// TrafficInfo is one fare quote for a flight on a route and departure date
type TrafficInfo struct {
	_ struct{} `es_document:"index=traffic_index,type=traffic_type,shards=1,replicas=0,refresh_interval=2s"`

	// SiteStartAndEnd is the route, analyzed with the n-gram analyzer for partial matches
	SiteStartAndEnd string `json:"siteStartAndEnd" es:"text,analyzer=charSplit"`
	DepartureDate   string `json:"departureDate" es:"keyword"`
	FlightNumber    string `json:"flightNumber" es:"keyword"`
	// DataTime is the quote timestamp in epoch seconds
	DataTime       int64  `json:"dataTime" es:"long"`
	Price          string `json:"price" es:"keyword"`
	NumberOfCabins *int   `json:"numberOfCabins,omitempty" es:"integer"`
	ClassCode      string `json:"classCode" es:"keyword"`
	// CreateTime is when the record was written, in epoch milliseconds; used for expiry
	CreateTime int64 `json:"createTime" es:"long"`
	// TrafficInfo concatenates route, date and flight number for duplicate detection
	TrafficInfo string `json:"trafficInfo" es:"keyword"`
}
