package watchlist

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/banking/sanctions-screening/internal/domain"
)

// Parser turns a raw feed document into canonical entities. Malformed
// records are logged and skipped; a malformed document is a ParseError.
type Parser func(raw []byte, fetchedAt time.Time, logger *zap.Logger) ([]domain.SanctionedEntity, error)

// recordVisitor is called for every element below the document root
type recordVisitor func(dec *xml.Decoder, start xml.StartElement) error

func newDecoder(raw []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", label)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec
}

// walkDocument streams raw, checks the root element and hands every nested
// start element to visit
func walkDocument(raw []byte, source string, roots []string, visit recordVisitor) error {
	dec := newDecoder(raw)
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.NewParseError(source, "malformed document", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			sawRoot = true
			if !slices.Contains(roots, start.Name.Local) {
				return domain.NewParseError(source, fmt.Sprintf("unexpected root element %q, want one of %v", start.Name.Local, roots), nil)
			}
			continue
		}
		if err := visit(dec, start); err != nil {
			return err
		}
	}

	if !sawRoot {
		return domain.NewParseError(source, "empty document", nil)
	}
	return nil
}

func skipRecord(logger *zap.Logger, err error) {
	logger.Warn("skipping malformed watchlist record", zap.Error(err))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
