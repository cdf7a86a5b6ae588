package httptransport

import (
	"encoding/json"
	"io"
)

// JSONSerializer is the default core.Serializer, backed by encoding/json.
type JSONSerializer struct{}

// Deserialize decodes r into out.
func (JSONSerializer) Deserialize(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}

// Serialize encodes body to JSON.
func (JSONSerializer) Serialize(body any) ([]byte, error) {
	return json.Marshal(body)
}
