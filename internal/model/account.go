package model

import "time"

// Account is the persisted ledger state of one user: the running balance, the
// append-only credit history and the certificates already redeemed.
type Account struct {
	UserID    string        `json:"userId"`
	Balance   int64         `json:"carbonBalance"`
	History   []CreditEntry `json:"history"`
	Redeemed  []string      `json:"redeemed,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (a *Account) HasRedeemed(certificateID string) bool {
	for _, id := range a.Redeemed {
		if id == certificateID {
			return true
		}
	}
	return false
}
