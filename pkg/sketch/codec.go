package sketch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborMode encodes deterministically so equal sketches give equal bytes.
var cborMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("sketch: cbor enc mode: %v", err))
	}
	return em
}()

// EncodeCBOR returns the compact binary form of p.
func EncodeCBOR(p Persisted) ([]byte, error) {
	b, err := cborMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode sketch: %w", err)
	}
	return b, nil
}

// DecodeCBOR parses the binary form produced by EncodeCBOR.
func DecodeCBOR(b []byte) (Persisted, error) {
	var p Persisted
	if err := cbor.Unmarshal(b, &p); err != nil {
		return Persisted{}, fmt.Errorf("decode sketch: %w", err)
	}
	return p, nil
}

// WriteJSON writes p as indented JSON.
func WriteJSON(w io.Writer, p Persisted) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("write sketch json: %w", err)
	}
	return nil
}

// ReadJSON parses a sketch written by WriteJSON.
func ReadJSON(r io.Reader) (Persisted, error) {
	var p Persisted
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Persisted{}, fmt.Errorf("read sketch json: %w", err)
	}
	return p, nil
}
