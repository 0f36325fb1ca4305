package snapshot

import "github.com/aurorastate/redux/internal/json"

// JSONCodec is the default Serializer, backed by the module's own JSON
// encoder rather than encoding/json.
type JSONCodec[S any] struct{}

// NewJSONCodec returns a Serializer using the module's JSON encoder.
func NewJSONCodec[S any]() JSONCodec[S] { return JSONCodec[S]{} }

func (JSONCodec[S]) Encode(state S) ([]byte, error) {
	return json.Marshal(state)
}

func (JSONCodec[S]) Decode(data []byte) (S, error) {
	var state S
	if err := json.Unmarshal(data, &state); err != nil {
		var zero S
		return zero, err
	}
	return state, nil
}

// Name identifies this codec in an Atom.
func (JSONCodec[S]) Name() string { return "json" }
