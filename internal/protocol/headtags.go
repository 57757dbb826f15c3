package protocol

import (
	"encoding/json"
	"fmt"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

// HeadTag is one pre-rendered SEO/meta entry for a page head. The union is
// discriminated by a "type" field: "head" for element tags, "json-ld" for
// structured data scripts.
type HeadTag interface {
	isHeadTag()
}

// ElementTag is a plain head element with ordered attributes.
type ElementTag struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

// JSONLDTag carries an opaque JSON-LD object.
type JSONLDTag struct {
	Contents json.RawMessage `json:"contents"`
}

func (ElementTag) isHeadTag() {}
func (JSONLDTag) isHeadTag()  {}

// Attribute is one (key, value) pair, serialized on the wire as a two-element
// array to preserve ordering.
type Attribute struct {
	Key   string
	Value string
}

// UnmarshalJSON decodes the ["key", "value"] tuple form.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("attribute tuple must have 2 elements, got %d", len(pair))
	}
	a.Key, a.Value = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes back to the tuple form.
func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Key, a.Value})
}

// HeadTags is an ordered sequence of head tags with union-aware decoding.
type HeadTags []HeadTag

// UnmarshalJSON dispatches each entry on its "type" discriminator.
func (h *HeadTags) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	tags := make(HeadTags, 0, len(raws))
	for _, raw := range raws {
		var discriminator struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &discriminator); err != nil {
			return err
		}
		switch discriminator.Type {
		case "head":
			var t ElementTag
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			tags = append(tags, t)
		case "json-ld":
			var t JSONLDTag
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			tags = append(tags, t)
		default:
			return pberrors.ProtocolViolation(fmt.Sprintf("unknown head tag type %q", discriminator.Type))
		}
	}
	*h = tags
	return nil
}
