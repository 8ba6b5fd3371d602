package state

import (
	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/opencordis/cordis/types"
)

// Account is a token holder. Balance is the free amount; Bonded is held in
// escrow against open proposal and bounty bonds and never counts toward
// voting weight or role membership.
type Account struct {
	Index   uint64         `json:"index"`
	PubKey  ed25519.PubKey `json:"pubKey"`
	Balance uint64         `json:"balance"`
	Bonded  uint64         `json:"bonded"`
	Nonce   uint64         `json:"nonce"`
}

func (a *Account) Clone() *Account {
	n := *a
	if a.PubKey != nil {
		n.PubKey = make([]byte, len(a.PubKey))
		copy(n.PubKey, a.PubKey)
	}
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}

// UserInfo is the account view role matching runs against.
func (a *Account) UserInfo() types.UserInfo {
	return types.UserInfo{Address: a.Address(), Balance: a.Balance}
}
