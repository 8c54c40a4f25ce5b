package nav

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type nominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	County      string `json:"county"`
	State       string `json:"state"`
	PostCode    string `json:"postcode"`
	Name        string `json:"name"`
	Country     string `json:"country_code"` // Two-letter ISO country code
}

type nominatimNameDetails struct {
	Name     string `json:"name"`
	Official string `json:"official_name"`
	Alt      string `json:"alt_name"`
}

type nominatimResponse struct {
	DisplayName string               `json:"display_name"`
	NameDetails nominatimNameDetails `json:"namedetails"`
	Lat         string               `json:"lat"`
	Lon         string               `json:"lon"`
	Address     nominatimAddress     `json:"address"`
	Error       string               `json:"error"`
}

// Nominatim resolves addresses against an OSM Nominatim instance.
type Nominatim struct {
	baseURL string
	http    httpDoer
}

// NewNominatim creates a geocoding client for cfg.NominatimURL.
func NewNominatim(cfg NavConfig) *Nominatim {
	return &Nominatim{
		baseURL: strings.TrimRight(cfg.NominatimURL, "/"),
		http:    newHTTPDoer(cfg),
	}
}

// Forward resolves an address. Only the best match is requested; an empty
// result with a nil error means nothing was found.
func (n *Nominatim) Forward(ctx context.Context, query string) ([]Place, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
		"namedetails":    {"1"},
	}
	apiURL := fmt.Sprintf("%s/search?%s", n.baseURL, params.Encode())

	var results []nominatimResponse
	if err := n.http.getJSON(ctx, apiURL, &results); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, result := range results {
		lat, err := strconv.ParseFloat(result.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: nominatim search: invalid latitude %q", ErrServiceUnavailable, result.Lat)
		}
		lon, err := strconv.ParseFloat(result.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: nominatim search: invalid longitude %q", ErrServiceUnavailable, result.Lon)
		}

		c := Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			return nil, fmt.Errorf("%w: nominatim search: coordinate %v out of range", ErrServiceUnavailable, c)
		}

		name, addr, country := formatAddress(result.Address, result.NameDetails)
		places = append(places, Place{
			Coordinate:  c,
			Name:        name,
			Address:     addr,
			DisplayName: result.DisplayName,
			Country:     country,
		})
	}
	return places, nil
}

// Reverse returns the formatted address lines for a coordinate. Nominatim
// answers "Unable to geocode" for open water and similar places, which is
// reported as an empty result.
func (n *Nominatim) Reverse(ctx context.Context, c Coordinate) ([]string, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(c.Lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(c.Lon, 'f', 6, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}
	apiURL := fmt.Sprintf("%s/reverse?%s", n.baseURL, params.Encode())

	var result nominatimResponse
	if err := n.http.getJSON(ctx, apiURL, &result); err != nil {
		return nil, fmt.Errorf("nominatim reverse: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return []string{}, nil
	}
	return []string{result.DisplayName}, nil
}

// formatAddress derives a short name and a "street, city, state postcode"
// address from Nominatim's address details.
func formatAddress(addr nominatimAddress, nameDetails nominatimNameDetails) (name string, formattedAddr string, countryCode string) {
	// Try to get the best name from namedetails
	name = nameDetails.Official
	if name == "" {
		name = nameDetails.Name
	}
	if name == "" {
		name = nameDetails.Alt
	}
	if name == "" {
		name = addr.Name
	}

	city := firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Suburb, addr.County)

	var streetParts []string
	if addr.Road != "" {
		streetParts = append(streetParts, addr.Road)
	}
	if addr.HouseNumber != "" {
		streetParts = append(streetParts, addr.HouseNumber)
	}
	streetAddress := strings.Join(streetParts, " ")

	if name == "" {
		name = streetAddress
	}

	var addrParts []string
	if streetAddress != "" {
		addrParts = append(addrParts, streetAddress)
	}
	if city != "" {
		addrParts = append(addrParts, city)
	}
	switch {
	case addr.State != "" && addr.PostCode != "":
		addrParts = append(addrParts, addr.State+" "+addr.PostCode)
	case addr.State != "":
		addrParts = append(addrParts, addr.State)
	case addr.PostCode != "":
		addrParts = append(addrParts, addr.PostCode)
	}

	return name, strings.Join(addrParts, ", "), strings.ToLower(addr.Country)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
