package export

import (
	"encoding/json"
	"io"
)

// WriteJSON renders the snapshot as indented JSON. Slice ordering in
// the snapshot already makes the node and edge arrays deterministic;
// map keys are sorted by the encoder.
func WriteJSON(w io.Writer, snapshot Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}
