package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"catalog-audit-shopify-layer/internal/domain"
)

// proposedFieldKeys is the fixed response schema of the generative provider.
// All seven keys must be present in every response.
var proposedFieldKeys = []string{
	"newTitle",
	"newDescription",
	"newTags",
	"newSeoTitle",
	"newSeoDescription",
	"newCategoryName",
	"newProductType",
}

// ParseProposedFields parses a raw provider response into the seven-key
// schema. The provider tends to wrap JSON in markdown fences, so those are
// stripped first. A response that is not a JSON object, or is missing any of
// the seven keys, or types a key wrongly, fails with
// domain.ErrMalformedAIResponse.
func ParseProposedFields(raw string) (*domain.ProposedFields, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}

	for _, key := range proposedFieldKeys {
		if _, ok := keys[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", domain.ErrMalformedAIResponse, key)
		}
	}

	var fields domain.ProposedFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	if fields.NewTags == nil {
		fields.NewTags = []string{}
	}

	return &fields, nil
}
