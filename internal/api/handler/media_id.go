package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// mediaID is a catalog id. Clients send it as a JSON string or number; it is
// always kept as its decimal string form.
type mediaID string

func (m *mediaID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = mediaID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("mediaId must be a string or a number: %w", err)
	}
	*m = mediaID(n.String())
	return nil
}
