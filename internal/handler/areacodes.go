package handler

import "net/http"

// AreaCode pairs a dialing code with its primary location.
type AreaCode struct {
	Code     string `json:"code"`
	Location string `json:"location"`
}

var usAreaCodes = []AreaCode{
	{Code: "212", Location: "New York, NY"},
	{Code: "213", Location: "Los Angeles, CA"},
	{Code: "305", Location: "Miami, FL"},
	{Code: "312", Location: "Chicago, IL"},
	{Code: "404", Location: "Atlanta, GA"},
	{Code: "415", Location: "San Francisco, CA"},
	{Code: "512", Location: "Austin, TX"},
	{Code: "602", Location: "Phoenix, AZ"},
	{Code: "615", Location: "Nashville, TN"},
	{Code: "617", Location: "Boston, MA"},
	{Code: "702", Location: "Las Vegas, NV"},
	{Code: "713", Location: "Houston, TX"},
	{Code: "720", Location: "Denver, CO"},
	{Code: "206", Location: "Seattle, WA"},
	{Code: "214", Location: "Dallas, TX"},
	{Code: "215", Location: "Philadelphia, PA"},
	{Code: "503", Location: "Portland, OR"},
	{Code: "504", Location: "New Orleans, LA"},
	{Code: "612", Location: "Minneapolis, MN"},
	{Code: "801", Location: "Salt Lake City, UT"},
}

var caAreaCodes = []AreaCode{
	{Code: "416", Location: "Toronto, ON"},
	{Code: "437", Location: "Toronto, ON"},
	{Code: "514", Location: "Montreal, QC"},
	{Code: "604", Location: "Vancouver, BC"},
	{Code: "613", Location: "Ottawa, ON"},
	{Code: "403", Location: "Calgary, AB"},
	{Code: "780", Location: "Edmonton, AB"},
	{Code: "902", Location: "Halifax, NS"},
	{Code: "204", Location: "Winnipeg, MB"},
	{Code: "306", Location: "Saskatoon, SK"},
}

// HandleAreaCodes returns the static area-code directory for number search.
// GET /api/area-codes?country=US|CA
func HandleAreaCodes(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "US"
	}

	var codes []AreaCode
	switch country {
	case "US":
		codes = usAreaCodes
	case "CA":
		codes = caAreaCodes
	default:
		codes = []AreaCode{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"areaCodes": codes,
		"country":   country,
	})
}
