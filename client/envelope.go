package client

import "encoding/json"

// envelope is the uniform wrapper the admin API puts around JSON responses.
// Endpoints that predate the convention return bare payloads; those are
// detected by the absent success field and passed through unchanged.
type envelope struct {
	Success   *bool           `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Timestamp string          `json:"timestamp,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// decodeEnvelope interprets body according to the envelope convention and
// unmarshals the payload into v. Exactly one of the three cases applies:
// success carrying data, failure carrying an *APIError, or a body without
// a success field, which is treated as an already-unwrapped value.
func decodeEnvelope(body []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Not an envelope-shaped object (array, scalar, free-form JSON).
		return decodeInto(body, v)
	}
	if env.Success == nil {
		return decodeInto(body, v)
	}
	if !*env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{}
		}
		if apiErr.Message == "" {
			apiErr.Message = fallbackErrorMessage
		}
		return apiErr
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return decodeInto(env.Data, v)
}

func decodeInto(data []byte, v any) error {
	if v == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
