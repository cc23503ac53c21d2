package watchlist

import (
	"encoding/xml"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
)

// Both feeds serve the classic sdnList layout. The sdn_advanced.xml and
// cons_advanced.xml files use a different schema and are rejected by the parser.
const (
	OFACSDNURL          = "https://www.treasury.gov/ofac/downloads/sdn.xml"
	OFACConsolidatedURL = "https://www.treasury.gov/ofac/downloads/consolidated/consolidated.xml"
)

// Identifiers and aka types appear both as attributes and as child elements
// depending on the feed vintage, so both are read.
type ofacEntry struct {
	UIDAttr   string `xml:"uid,attr"`
	UID       string `xml:"uid"`
	FirstName string `xml:"firstName"`
	LastName  string `xml:"lastName"`
	Title     string `xml:"title"`
	SDNType   string `xml:"sdnType"`
	Remarks   string `xml:"remarks"`

	Programs       []string      `xml:"programList>program"`
	LoosePrograms  []string      `xml:"program"`
	AKAs           []ofacAKA     `xml:"akaList>aka"`
	LooseAKAs      []ofacAKA     `xml:"aka"`
	Addresses      []ofacAddress `xml:"addressList>address"`
	LooseAddresses []ofacAddress `xml:"address"`
}

type ofacAKA struct {
	TypeAttr     string `xml:"type,attr"`
	Type         string `xml:"type"`
	CategoryAttr string `xml:"category,attr"`
	Category     string `xml:"category"`
	FirstName    string `xml:"firstName"`
	LastName     string `xml:"lastName"`
}

type ofacAddress struct {
	UIDAttr         string `xml:"uid,attr"`
	UID             string `xml:"uid"`
	Address1        string `xml:"address1"`
	Address2        string `xml:"address2"`
	City            string `xml:"city"`
	StateOrProvince string `xml:"stateOrProvince"`
	PostalCode      string `xml:"postalCode"`
	Country         string `xml:"country"`
}

// ParseOFAC parses an OFAC SDN list document
func ParseOFAC(raw []byte, fetchedAt time.Time, logger *zap.Logger) ([]domain.SanctionedEntity, error) {
	return parseOFAC(domain.SourceOFAC, raw, fetchedAt, logger)
}

// ParseOFACConsolidated parses the non-SDN consolidated list, which uses the
// SDN document layout
func ParseOFACConsolidated(raw []byte, fetchedAt time.Time, logger *zap.Logger) ([]domain.SanctionedEntity, error) {
	return parseOFAC(domain.SourceOFACConsolidated, raw, fetchedAt, logger)
}

func parseOFAC(source string, raw []byte, fetchedAt time.Time, logger *zap.Logger) ([]domain.SanctionedEntity, error) {
	logger = logger.With(zap.String("source", source))
	var entities []domain.SanctionedEntity
	skipped := 0

	err := walkDocument(raw, source, []string{"sdnList"}, func(dec *xml.Decoder, start xml.StartElement) error {
		if start.Name.Local != "sdnEntry" {
			return nil
		}
		var entry ofacEntry
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return domain.NewParseError(source, "malformed sdnEntry", err)
		}
		entity, err := entry.toEntity(source, fetchedAt)
		if err != nil {
			skipped++
			skipRecord(logger, err)
			return nil
		}
		entities = append(entities, entity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("parsed OFAC list", zap.Int("entities", len(entities)), zap.Int("skipped", skipped))
	return entities, nil
}

func (e ofacEntry) toEntity(source string, fetchedAt time.Time) (domain.SanctionedEntity, error) {
	uid := firstNonEmpty(e.UIDAttr, e.UID)
	if uid == "" {
		return domain.SanctionedEntity{}, domain.NewParseError(source, "sdnEntry without uid", nil)
	}
	name := joinNonEmpty(" ", e.FirstName, e.LastName)
	if name == "" {
		return domain.SanctionedEntity{}, domain.NewParseError(source, "sdnEntry "+uid+" without name", nil)
	}

	entityType := domain.EntityTypeOrganization
	if strings.EqualFold(strings.TrimSpace(e.SDNType), "individual") {
		entityType = domain.EntityTypeIndividual
	}

	entity := domain.SanctionedEntity{
		UID:         uid,
		EntityType:  entityType,
		PrimaryName: name,
		Programs:    appendUnique(nil, append(e.Programs, e.LoosePrograms...)...),
		Source:      source,
		Severity:    domain.SeverityHigh,
		LastUpdated: fetchedAt,
		Title:       strings.TrimSpace(e.Title),
		Remarks:     strings.TrimSpace(e.Remarks),
	}

	for _, aka := range append(e.AKAs, e.LooseAKAs...) {
		akaName := joinNonEmpty(" ", aka.FirstName, aka.LastName)
		if akaName == "" {
			continue
		}
		entity.Aliases = append(entity.Aliases, domain.Alias{
			Name:     akaName,
			Type:     firstNonEmpty(aka.TypeAttr, aka.Type),
			Category: firstNonEmpty(aka.CategoryAttr, aka.Category),
		})
	}

	for _, addr := range append(e.Addresses, e.LooseAddresses...) {
		a := domain.Address{
			UID:             firstNonEmpty(addr.UIDAttr, addr.UID),
			Street:          strings.TrimSpace(addr.Address1),
			Street2:         strings.TrimSpace(addr.Address2),
			City:            strings.TrimSpace(addr.City),
			StateOrProvince: strings.TrimSpace(addr.StateOrProvince),
			PostalCode:      strings.TrimSpace(addr.PostalCode),
			Country:         strings.TrimSpace(addr.Country),
		}
		a.FullAddress = joinNonEmpty(", ", a.Street, a.Street2, a.City, a.StateOrProvince, a.PostalCode, a.Country)
		entity.Addresses = append(entity.Addresses, a)
	}

	return entity, nil
}
