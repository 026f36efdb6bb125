package businessapi

import "encoding/json"

// Well-known field names shared between the normalizer, repositories and
// HTTP handlers.
const (
	FieldImageURL      = "imageUrl"
	FieldProductImages = "productImages"
)

// Fields is the schema-less attribute set persisted for a document. After
// normalization, FieldProductImages always holds an ordered list of URL
// strings and FieldImageURL always holds a string.
type Fields map[string]interface{}

// Clone returns a shallow copy of the field set.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Business is the canonical, store-ready representation of a business
// record. ID is assigned by the document store on creation and never
// mutated afterwards.
type Business struct {
	ID     string
	Fields Fields
}

// MarshalJSON flattens the record into the API shape {id, ...fields}.
func (b *Business) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(b.Fields)+1)
	for k, v := range b.Fields {
		out[k] = v
	}
	out["id"] = b.ID
	return json.Marshal(out)
}

// ImageURL returns the record's image URL, or "" when unset.
func (b *Business) ImageURL() string {
	s, _ := b.Fields[FieldImageURL].(string)
	return s
}

// ProductImages returns the ordered product image URLs. Repositories that
// round-trip through JSON hand back []interface{}; both shapes are accepted.
func (b *Business) ProductImages() []string {
	return stringList(b.Fields[FieldProductImages])
}

// Event is a read-only passthrough record from the events collection. No
// normalization is applied to its fields.
type Event struct {
	ID     string
	Fields Fields
}

// MarshalJSON flattens the event into the API shape {id, ...fields}.
func (e *Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["id"] = e.ID
	return json.Marshal(out)
}

// Attachment is a binary file part submitted alongside a request, destined
// for the blob store.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func stringList(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
