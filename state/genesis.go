package state

import (
	"github.com/opencordis/cordis/types"
)

// InitGenesis seeds a fresh state from the genesis app state: the funded
// accounts, the organization config, the boot policy and the treasury.
func (s *State) InitGenesis(appState *types.AppState) error {
	for _, ga := range appState.Accounts {
		acnt := &Account{Balance: ga.Balance}
		acnt.SetPubKey(ga.PubKey)
		if err := s.AddAccount(acnt); err != nil {
			return err
		}
	}
	policy := appState.Policy
	if len(policy.Roles) == 0 {
		council := make([]string, 0, len(appState.Accounts))
		for _, ga := range appState.Accounts {
			acnt := &Account{}
			acnt.SetPubKey(ga.PubKey)
			council = append(council, acnt.Address())
		}
		policy = types.DefaultPolicy(council)
	}
	s.setPolicy(&policy)
	cfg := appState.Config
	s.setConfig(&cfg)
	s.header.Treasury = appState.Treasury
	return nil
}
