package state

import (
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

const testBond = types.DefaultProposalBond

type testEnv struct {
	t     *testing.T
	db    *StateDB
	st    *State
	keys  []ed25519.PrivKey
	addrs []string
}

// newTestEnv boots a fresh chain with funded accounts forming the default
// council policy, mirroring the InitChain sequence.
func newTestEnv(t *testing.T, treasury uint64, balances ...uint64) *testEnv {
	logger := cmtlog.NewNopLogger()
	db, err := NewStateDB(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &testEnv{t: t, db: db}
	appState := &types.AppState{
		Config:   types.Config{Name: "testorg"},
		Treasury: treasury,
	}
	for _, bal := range balances {
		key := ed25519.GenPrivKey()
		e.keys = append(e.keys, key)
		appState.Accounts = append(appState.Accounts, types.GenesisAccount{
			PubKey:  key.PubKey().Bytes(),
			Balance: bal,
		})
		e.addrs = append(e.addrs, key.PubKey().Address().String())
	}

	st := db.NewState()
	st.SetChainId("test-chain")
	st.SetBlockTime(1000)
	require.NoError(t, st.InitGenesis(appState))
	_, err = st.Update()
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)

	e.st = db.NewState()
	return e
}

func (e *testEnv) commit() {
	_, err := e.st.Update()
	require.NoError(e.t, err)
	_, err = e.db.SetState(e.st)
	require.NoError(e.t, err)
	e.st = e.db.NewState()
}

func (e *testEnv) account(i int) *Account {
	a, err := e.st.FindAccountByAddress(e.addrs[i])
	require.NoError(e.t, err)
	require.NotNil(e.t, a)
	return a
}

func (e *testEnv) setPolicy(mut func(p *types.Policy)) {
	pol, err := e.st.mutablePolicy()
	require.NoError(e.t, err)
	mut(pol)
	e.st.setPolicy(pol)
}

func textInstrs(memo string) []types.Instruction {
	return []types.Instruction{{Kind: types.InstrText, Payload: &types.TextInstr{Memo: memo}}}
}

func (e *testEnv) propose(sender int, instrs []types.Instruction) uint64 {
	_, err := e.st.Propose(&tx.ProposeTx{
		Description:  "test proposal",
		Instructions: instrs,
		Bond:         testBond,
	}, e.addrs[sender], false)
	require.NoError(e.t, err)
	return e.st.GetProposalMax()
}

func (e *testEnv) vote(sender int, proposal uint64, kind types.VoteKind, version uint8) {
	_, err := e.st.CastVote(&tx.VoteTx{Proposal: proposal, Kind: kind, Version: version}, e.addrs[sender], false)
	require.NoError(e.t, err)
}

func (e *testEnv) proposal(idx uint64) *types.Proposal {
	p, err := e.st.GetProposal(idx)
	require.NoError(e.t, err)
	return p
}

func TestInitGenesisAccounts(t *testing.T) {
	e := newTestEnv(t, 500, 10*testBond, 10*testBond, 10*testBond)

	require.Equal(t, uint64(30*testBond), e.st.TotalSupply())
	require.Equal(t, uint64(500), e.st.Treasury())

	a := e.account(0)
	require.Equal(t, uint64(StartAccountIdx), a.Index)
	require.Equal(t, uint64(10*testBond), a.Balance)
	require.Zero(t, a.Nonce)

	policy, err := e.st.Policy()
	require.NoError(t, err)
	require.Len(t, policy.Roles, 2)
	require.ElementsMatch(t, e.addrs, policy.Roles[1].Kind.Group)
}

func TestVerifyTx(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond)

	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypePropose,
		Nonce:   0,
		Sender:  e.addrs[0],
		Tx:      &tx.ProposeTx{Description: "d", Instructions: textInstrs("m"), Bond: testBond},
	}
	dat, err := btx.SigData([]byte("test-chain"))
	require.NoError(t, err)
	sig, err := e.keys[0].Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	succ, err := e.st.Verify(btx, false)
	require.NoError(t, err)
	require.True(t, succ)

	// wrong nonce
	btx.Nonce = 7
	_, err = e.st.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)

	// nonce gaps pass the nonce check but the old signature no longer covers
	// the envelope
	succ, err = e.st.Verify(btx, true)
	require.ErrorIs(t, err, ErrTxSigInvalid)
	require.False(t, succ)
}

func TestBondAccounting(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("hello"))
	require.Equal(t, uint64(1), idx)

	a := e.account(0)
	require.Equal(t, uint64(9*testBond), a.Balance)
	require.Equal(t, uint64(testBond), a.Bonded)
	require.Equal(t, uint64(1), a.Nonce)
	// bonded tokens leave the voting supply
	require.Equal(t, uint64(29*testBond), e.st.TotalSupply())
}

func TestProposePersistsAcrossCommit(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("persist me"))
	e.commit()

	p := e.proposal(idx)
	require.Equal(t, types.ProposalStatusOpen, p.Status)
	require.Len(t, p.Versions, 1)
	require.Equal(t, e.addrs[0], p.Versions[0].Proposer)
	require.Equal(t, "test proposal", p.Versions[0].Description)

	payload, ok := p.Versions[0].Instructions[0].Payload.(*types.TextInstr)
	require.True(t, ok)
	require.Equal(t, "persist me", payload.Memo)

	a := e.account(0)
	require.Equal(t, uint64(testBond), a.Bonded)
}

func TestProposeInsufficientBond(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond)

	_, err := e.st.Propose(&tx.ProposeTx{
		Description:  "cheap",
		Instructions: textInstrs("m"),
		Bond:         testBond - 1,
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrInsufficientBond)

	_, err = e.st.Propose(&tx.ProposeTx{
		Description:  "broke",
		Instructions: textInstrs("m"),
		Bond:         11 * testBond,
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrInsufficientBond)
}

func TestProposeRejectsBadInstructionSets(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond)

	_, err := e.st.Propose(&tx.ProposeTx{
		Description:  "empty",
		Instructions: nil,
		Bond:         testBond,
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrEmptyInstructions)

	// standalone instruction mixed with another one
	mixed := []types.Instruction{
		{Kind: types.InstrText, Payload: &types.TextInstr{Memo: "m"}},
		{Kind: types.InstrChangePolicy, Payload: &types.ChangePolicyInstr{}},
	}
	_, err = e.st.Propose(&tx.ProposeTx{
		Description:  "mixed",
		Instructions: mixed,
		Bond:         testBond,
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrStandaloneInstruction)
}

func TestProposeUnknownSender(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond)

	stranger := ed25519.GenPrivKey().PubKey().Address().String()
	_, err := e.st.Propose(&tx.ProposeTx{
		Description:  "who",
		Instructions: textInstrs("m"),
		Bond:         testBond,
	}, stranger, false)
	require.ErrorIs(t, err, ErrTxSenderNoexists)
}

func TestCheckOnlyLeavesStateUntouched(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond)

	_, err := e.st.Propose(&tx.ProposeTx{
		Description:  "dry",
		Instructions: textInstrs("m"),
		Bond:         testBond,
	}, e.addrs[0], true)
	require.NoError(t, err)

	require.Zero(t, e.st.GetProposalMax())
	a := e.account(0)
	require.Zero(t, a.Bonded)
	require.Zero(t, a.Nonce)
}
