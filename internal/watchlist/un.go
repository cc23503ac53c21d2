package watchlist

import (
	"encoding/xml"
	"time"

	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
)

const UNConsolidatedURL = "https://scsanctions.un.org/resources/xml/en/consolidated.xml"

type unRecord struct {
	DataIDAttr      string `xml:"dataid,attr"`
	DataID          string `xml:"DATAID"`
	FirstName       string `xml:"FIRST_NAME"`
	SecondName      string `xml:"SECOND_NAME"`
	ThirdName       string `xml:"THIRD_NAME"`
	FourthName      string `xml:"FOURTH_NAME"`
	ListType        string `xml:"UN_LIST_TYPE"`
	ReferenceNumber string `xml:"REFERENCE_NUMBER"`
	ListedOn        string `xml:"LISTED_ON"`
	Comments        string `xml:"COMMENTS1"`

	IndividualAliases   []unAlias   `xml:"INDIVIDUAL_ALIAS"`
	EntityAliases       []unAlias   `xml:"ENTITY_ALIAS"`
	IndividualAddresses []unAddress `xml:"INDIVIDUAL_ADDRESS"`
	EntityAddresses     []unAddress `xml:"ENTITY_ADDRESS"`
	Nationalities       []string    `xml:"NATIONALITY>VALUE"`
	PlacesOfBirth       []unPlace   `xml:"INDIVIDUAL_PLACE_OF_BIRTH"`
	DatesOfBirth        []unBirth   `xml:"INDIVIDUAL_DATE_OF_BIRTH"`
}

type unAlias struct {
	Quality string `xml:"QUALITY"`
	Name    string `xml:"ALIAS_NAME"`
}

type unAddress struct {
	Street        string `xml:"STREET"`
	City          string `xml:"CITY"`
	StateProvince string `xml:"STATE_PROVINCE"`
	ZipCode       string `xml:"ZIP_CODE"`
	Country       string `xml:"COUNTRY"`
}

type unPlace struct {
	Country string `xml:"COUNTRY"`
}

type unBirth struct {
	Calendar string `xml:"calendar,attr"`
	Date     string `xml:"DATE"`
	Year     string `xml:"YEAR"`
}

// ParseUN parses the UN Security Council consolidated list
func ParseUN(raw []byte, fetchedAt time.Time, logger *zap.Logger) ([]domain.SanctionedEntity, error) {
	logger = logger.With(zap.String("source", domain.SourceUN))
	var individuals, organizations []domain.SanctionedEntity
	skipped := 0

	err := walkDocument(raw, domain.SourceUN, []string{"CONSOLIDATED_LIST"}, func(dec *xml.Decoder, start xml.StartElement) error {
		var entityType domain.EntityType
		switch start.Name.Local {
		case "INDIVIDUAL":
			entityType = domain.EntityTypeIndividual
		case "ENTITY":
			entityType = domain.EntityTypeOrganization
		default:
			return nil
		}

		var rec unRecord
		if err := dec.DecodeElement(&rec, &start); err != nil {
			return domain.NewParseError(domain.SourceUN, "malformed "+start.Name.Local, err)
		}
		entity, err := rec.toEntity(entityType, fetchedAt)
		if err != nil {
			skipped++
			skipRecord(logger, err)
			return nil
		}
		if entityType == domain.EntityTypeIndividual {
			individuals = append(individuals, entity)
		} else {
			organizations = append(organizations, entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("parsed UN consolidated list",
		zap.Int("individuals", len(individuals)),
		zap.Int("entities", len(organizations)),
		zap.Int("skipped", skipped))
	return append(individuals, organizations...), nil
}

func (r unRecord) toEntity(entityType domain.EntityType, fetchedAt time.Time) (domain.SanctionedEntity, error) {
	uid := firstNonEmpty(r.DataIDAttr, r.DataID)
	if uid == "" {
		return domain.SanctionedEntity{}, domain.NewParseError(domain.SourceUN, "record without DATAID", nil)
	}

	name := joinNonEmpty(" ", r.FirstName, r.SecondName, r.ThirdName, r.FourthName)
	if entityType == domain.EntityTypeOrganization {
		name = firstNonEmpty(r.FirstName)
	}
	if name == "" {
		return domain.SanctionedEntity{}, domain.NewParseError(domain.SourceUN, "record "+uid+" without name", nil)
	}

	entity := domain.SanctionedEntity{
		UID:             uid,
		EntityType:      entityType,
		PrimaryName:     name,
		Programs:        appendUnique(nil, r.ListType),
		Source:          domain.SourceUN,
		Severity:        domain.SeverityHigh,
		LastUpdated:     fetchedAt,
		ReferenceNumber: firstNonEmpty(r.ReferenceNumber),
		ListedOn:        firstNonEmpty(r.ListedOn),
		Comments:        firstNonEmpty(r.Comments),
	}

	for _, a := range append(r.IndividualAliases, r.EntityAliases...) {
		aliasName := firstNonEmpty(a.Name)
		if aliasName == "" {
			continue
		}
		quality := firstNonEmpty(a.Quality)
		entity.Aliases = append(entity.Aliases, domain.Alias{
			Name:     aliasName,
			Type:     "alias",
			Category: quality,
			Quality:  quality,
		})
	}

	for _, a := range append(r.IndividualAddresses, r.EntityAddresses...) {
		addr := domain.Address{
			Street:          firstNonEmpty(a.Street),
			City:            firstNonEmpty(a.City),
			StateOrProvince: firstNonEmpty(a.StateProvince),
			PostalCode:      firstNonEmpty(a.ZipCode),
			Country:         firstNonEmpty(a.Country),
		}
		addr.FullAddress = joinNonEmpty(", ", addr.Street, addr.City, addr.StateOrProvince, addr.PostalCode, addr.Country)
		entity.Addresses = append(entity.Addresses, addr)
	}

	entity.Nationalities = appendUnique(entity.Nationalities, r.Nationalities...)
	for _, p := range r.PlacesOfBirth {
		entity.Nationalities = appendUnique(entity.Nationalities, p.Country)
	}

	for _, b := range r.DatesOfBirth {
		entity.BirthInfo = append(entity.BirthInfo, domain.BirthInfo{
			Calendar: firstNonEmpty(b.Calendar),
			Date:     firstNonEmpty(b.Date),
			Year:     firstNonEmpty(b.Year),
		})
	}

	return entity, nil
}
