package transfer

// NewApiKey is returned once, at creation. The plaintext key is never
// readable again.
type NewApiKey struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Prefix string `json:"prefix"`
}
