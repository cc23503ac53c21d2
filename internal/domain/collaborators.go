package domain

import "context"

// Translation is the output of an external translation capability
type Translation struct {
	TranslatedText string  `json:"translated_text"`
	Confidence     float64 `json:"confidence"`
}

// Translator converts free text (addresses, business descriptions) into English.
// Implemented outside this service; the screening core never calls it.
type Translator interface {
	Translate(ctx context.Context, text, purpose string) (Translation, error)
}

// NameAvailabilityChecker queries a business-name registry.
// Implemented outside this service.
type NameAvailabilityChecker interface {
	CheckAvailability(ctx context.Context, name string) (bool, error)
}
