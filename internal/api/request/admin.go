package request

type Withdraw struct {
	To string `json:"to" validate:"required,eth_addr"`
}

type SetToken struct {
	Token string `json:"token" validate:"required,eth_addr"`
}

type TransferOwnership struct {
	Owner string `json:"owner" validate:"required,eth_addr"`
}
