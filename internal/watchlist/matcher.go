package watchlist

import (
	"sort"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/similarity"
	"github.com/banking/sanctions-screening/internal/transliteration"
)

// nameQuery scores listed names against one search term. Latin names are
// compared on their normalized form; Chinese text on either side goes through
// the romanization tables.
type nameQuery struct {
	raw        string
	normalized string
	chinese    string
	romanized  *transliteration.Matcher
}

func newNameQuery(term string) *nameQuery {
	q := &nameQuery{raw: term, normalized: similarity.Normalize(term)}
	if transliteration.ContainsChinese(term) {
		q.chinese = transliteration.ExtractChinese(term)
		q.romanized = transliteration.NewMatcher(q.chinese)
	}
	return q
}

func (q *nameQuery) score(name string) float64 {
	nameIsChinese := transliteration.ContainsChinese(name)
	switch {
	case q.chinese != "" && nameIsChinese:
		return similarity.Calculate(q.chinese, transliteration.ExtractChinese(name), similarity.Options{}).Composite
	case q.chinese != "":
		return q.romanized.Match(name, transliteration.MatchOptions{}).Confidence
	case nameIsChinese:
		return transliteration.MatchChineseName(q.raw, name, transliteration.MatchOptions{}).Confidence
	case q.normalized == "":
		return 0
	default:
		return similarity.Calculate(q.normalized, similarity.Normalize(name), similarity.Options{}).Composite
	}
}

// best returns the highest scoring name of e. The primary name wins ties.
func (q *nameQuery) best(e *domain.SanctionedEntity) (domain.MatchedField, string, float64) {
	field, value, confidence := domain.MatchedFieldName, e.PrimaryName, 0.0
	if e.PrimaryName != "" {
		confidence = q.score(e.PrimaryName)
	}
	for _, alias := range e.Aliases {
		if alias.Name == "" {
			continue
		}
		if c := q.score(alias.Name); c > confidence {
			field, value, confidence = domain.MatchedFieldAlias, alias.Name, c
		}
	}
	return field, value, confidence
}

// searchEntities returns a candidate for every entity whose best name scores
// at least threshold, highest confidence first and by UID among equals
func searchEntities(entities []domain.SanctionedEntity, term string, threshold float64) []domain.MatchCandidate {
	q := newNameQuery(term)
	var candidates []domain.MatchCandidate

	for i := range entities {
		e := &entities[i]
		field, value, confidence := q.best(e)
		if value == "" || confidence < threshold {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{
			Entity:       *e,
			MatchedField: field,
			MatchedValue: value,
			Confidence:   confidence,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Entity.UID < candidates[j].Entity.UID
	})
	return candidates
}
