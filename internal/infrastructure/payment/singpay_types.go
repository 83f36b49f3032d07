package payment

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString accepts a JSON string or number. The gateway sends ids and
// durations either way.
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// objects and booleans carry no id
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// transactionEnvelope holds the fields read from initiation and status
// bodies. They appear at top level or nested under "transaction" or "data".
type transactionEnvelope struct {
	TransactionID flexString `json:"transaction_id"`
	ID            flexString `json:"id"`
	Reference     flexString `json:"reference"`
	Status        flexString `json:"status"`
}

type statusResponse struct {
	levels []transactionEnvelope
}

// parseStatusResponse decodes a gateway body. Only a body that is not a
// JSON object is an error; unexpected nested shapes are skipped.
func parseStatusResponse(body []byte) (*statusResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	r := &statusResponse{}
	var env transactionEnvelope
	_ = json.Unmarshal(body, &env)
	r.levels = append(r.levels, env)
	for _, key := range []string{"transaction", "data"} {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var nested transactionEnvelope
		if err := json.Unmarshal(raw, &nested); err == nil {
			r.levels = append(r.levels, nested)
		}
	}
	return r, nil
}

func (r *statusResponse) status() string {
	for _, l := range r.levels {
		if l.Status != "" {
			return string(l.Status)
		}
	}
	return ""
}

func (r *statusResponse) reference() string {
	for _, l := range r.levels {
		if l.Reference != "" {
			return string(l.Reference)
		}
	}
	return ""
}

func (r *statusResponse) transactionID() string {
	for _, l := range r.levels {
		if l.TransactionID != "" {
			return string(l.TransactionID)
		}
	}
	// a bare "id" only counts inside a nested transaction object
	for _, l := range r.levels[1:] {
		if l.ID != "" {
			return string(l.ID)
		}
	}
	return ""
}

// extractTransactionID returns the gateway transaction id from a body, or
// "" when the body does not carry one
func extractTransactionID(body []byte) string {
	r, err := parseStatusResponse(body)
	if err != nil {
		return ""
	}
	return r.transactionID()
}
