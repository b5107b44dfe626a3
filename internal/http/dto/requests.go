package dto

type ChallengeRequest struct {
	Email string `json:"email"`
}

type VerifySignInRequest struct {
	Chain     string `json:"chain"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Nonce     string `json:"nonce"`
	Domain    string `json:"domain"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type CreateLinkRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Website     *string  `json:"website,omitempty"`
}

type UpdateLinkRequest struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Status      string   `json:"status,omitempty"`
}

type ConnectWalletRequest struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

type CreateNotificationRequest struct {
	Type    string `json:"type,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type RecordPaymentRequest struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency,omitempty"`
	TxHash       string  `json:"txHash"`
	PayerAddress *string `json:"payerAddress,omitempty"`
}
