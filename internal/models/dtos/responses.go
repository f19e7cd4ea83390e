package dtos

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// GateResponse is the data payload of a refused access gate.
type GateResponse struct {
	Decision string   `json:"decision"`
	Redirect string   `json:"redirect,omitempty"`
	View     string   `json:"view,omitempty"`
	Actions  []string `json:"actions,omitempty"`
}
