package request

// CreateSubscription is the payload for submitting a signed payment
// authorization. Amount is a decimal string so 256-bit values survive JSON;
// the signature is the compact 65-byte form, hex encoded.
type CreateSubscription struct {
	SubscriptionID string `json:"subscription_id" validate:"required,max=13"`
	Amount         string `json:"amount" validate:"required,udec"`
	Deadline       uint64 `json:"deadline" validate:"required"`
	Signature      string `json:"signature" validate:"required,hexsig"`
}
