package auth

// Identity is an authenticated operator as seen by the admin
type Identity struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// FlowMode is how the browser runs a provider sign-in
type FlowMode string

const (
	FlowPopup    FlowMode = "popup"
	FlowRedirect FlowMode = "redirect"
)

// ProviderFlow is a started provider sign-in. The client opens AuthURI and hands
// SessionID back on completion.
type ProviderFlow struct {
	Mode       FlowMode `json:"mode"`
	AuthURI    string   `json:"authUri"`
	SessionID  string   `json:"sessionId"`
	ProviderID string   `json:"providerId"`
}
