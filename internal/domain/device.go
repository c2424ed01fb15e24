package domain

// Device is an automation target reported by a device provider.
type Device struct {
	ID      string `json:"device_id"`
	Status  string `json:"status"`
	Model   string `json:"model,omitempty"`
	Product string `json:"product,omitempty"`
}
