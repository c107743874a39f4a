// Package types contains the HTTP wire types shared by the scoring service
// and its client.
package types

// IDField is the request field carrying the client identifier.
const IDField = "SK_ID_CURR"

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	ClientID *int64 `json:"SK_ID_CURR" validate:"required"`
}

// Prediction is the body of a successful POST /predict.
type Prediction struct {
	ClientID    int64   `json:"client_id" yaml:"client_id"`
	Probability float64 `json:"probabilité_defaut" yaml:"probabilité_defaut"`
	Decision    string  `json:"décision" yaml:"décision"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status    string  `json:"status"`
	Clients   int     `json:"clients,omitempty"`
	Features  int     `json:"features,omitempty"`
	Model     string  `json:"model,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}
