package model

// Country holds the subset of REST Countries metadata used to decorate checkout.
type Country struct {
	CommonName   string     `json:"commonName"`
	OfficialName string     `json:"officialName"`
	Capital      []string   `json:"capital,omitempty"`
	Region       string     `json:"region"`
	Subregion    string     `json:"subregion,omitempty"`
	Flag         string     `json:"flag"`
	Currencies   []Currency `json:"currencies,omitempty"`
}

// Currency is a currency used by a country, keyed by its ISO code.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Region is a shipping region inside the store's country.
type Region struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Location is a geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
