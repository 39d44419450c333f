package types

// SuccessEnvelope is the uniform success payload. Ok mirrors what the RFID
// bridge firmware expects alongside the data object.
type SuccessEnvelope struct {
	Ok   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
