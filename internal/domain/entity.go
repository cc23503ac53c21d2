package domain

import "time"

// EntityType classifies a sanctioned party
type EntityType string

const (
	EntityTypeIndividual   EntityType = "INDIVIDUAL"
	EntityTypeOrganization EntityType = "ORGANIZATION"
)

// Severity of a listing. Every list ingested today is high severity.
type Severity string

const (
	SeverityHigh Severity = "HIGH"
)

// Watchlist source names
const (
	SourceOFAC             = "OFAC"
	SourceOFACConsolidated = "OFAC_CONSOLIDATED"
	SourceUN               = "UN"
)

// Alias is an alternative name published by the list
type Alias struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"` // strong, weak (OFAC)
	Type     string `json:"type,omitempty"`     // a.k.a., f.k.a., n.k.a.
	Quality  string `json:"quality,omitempty"`  // Good, Low (UN)
}

// Address is a structured listed address plus a display string
type Address struct {
	UID             string `json:"uid,omitempty"`
	Street          string `json:"street,omitempty"`
	Street2         string `json:"street2,omitempty"`
	City            string `json:"city,omitempty"`
	StateOrProvince string `json:"state_or_province,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	Country         string `json:"country,omitempty"`
	FullAddress     string `json:"full_address"`
}

// BirthInfo holds one listed date of birth
type BirthInfo struct {
	Calendar string `json:"calendar,omitempty"`
	Date     string `json:"date,omitempty"`
	Year     string `json:"year,omitempty"`
}

// SanctionedEntity is the canonical record produced by every watchlist parser.
// Entities are owned by their source's cache snapshot and are never modified
// after parsing; a refresh replaces the whole set.
type SanctionedEntity struct {
	UID         string     `json:"uid"`
	EntityType  EntityType `json:"entity_type"`
	PrimaryName string     `json:"primary_name"`
	Aliases     []Alias    `json:"aliases,omitempty"`
	Addresses   []Address  `json:"addresses,omitempty"`
	Programs    []string   `json:"programs,omitempty"`
	Source      string     `json:"source"`
	Severity    Severity   `json:"severity"`
	LastUpdated time.Time  `json:"last_updated"`

	// Source specific details
	Title           string      `json:"title,omitempty"`
	Remarks         string      `json:"remarks,omitempty"`
	ReferenceNumber string      `json:"reference_number,omitempty"`
	ListedOn        string      `json:"listed_on,omitempty"`
	Comments        string      `json:"comments,omitempty"`
	Nationalities   []string    `json:"nationalities,omitempty"`
	BirthInfo       []BirthInfo `json:"birth_info,omitempty"`
}

// Names returns the primary name followed by every non-empty alias name
func (e *SanctionedEntity) Names() []string {
	names := make([]string, 0, len(e.Aliases)+1)
	if e.PrimaryName != "" {
		names = append(names, e.PrimaryName)
	}
	for _, a := range e.Aliases {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}
