package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState         = "s"
	KeyAccountIndex  = "i%s"
	KeyAccountBody   = "a%x"
	KeyPolicy        = "pol"
	KeyConfig        = "cfg"
	KeyProposalBody  = "p%v"
	KeyProposalIndex = "pi"
	KeyBountyBody    = "b%v"
	KeyBountyIndex   = "bi"
	KeyBountyClaim   = "bc%v_%s"
)

var (
	ErrTxSenderNoexists      = errors.New("sender noexists")
	ErrTxNonceInvalid        = errors.New("nonce invalid")
	ErrTxSigInvalid          = errors.New("signature invalid")
	ErrAccountAlreadyExists  = errors.New("account already exists")
	ErrAccountNoexists       = errors.New("account noexists")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrProposalNoexists      = errors.New("proposal noexists")
	ErrProposalNotOpen       = errors.New("proposal not open")
	ErrProposalExpired       = errors.New("proposal period elapsed")
	ErrKindMismatch          = errors.New("instructions do not match proposal kind")
	ErrEmptyInstructions     = errors.New("empty instruction list")
	ErrStandaloneInstruction = errors.New("standalone instruction not alone")
	ErrInsufficientBond      = errors.New("insufficient bond")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrNoVotingWeight        = errors.New("no voting weight")
	ErrVotesAlreadyCast      = errors.New("version already carries votes")
	ErrNotProposer           = errors.New("not the version proposer")
	ErrNotApproved           = errors.New("proposal not approved")
	ErrAlreadyExecuting      = errors.New("proposal already executing")
	ErrNotExecuting          = errors.New("proposal not executing")
	ErrVersionNoexists       = errors.New("version noexists")
	ErrVersionRemoved        = errors.New("version removed")
	ErrCallSeqMismatch       = errors.New("callback sequence mismatch")
	ErrProposalNotExpired    = errors.New("proposal period not elapsed")
	ErrBountyNoexists        = errors.New("bounty noexists")
	ErrBountyExhausted       = errors.New("bounty exhausted")
	ErrClaimNoexists         = errors.New("bounty claim noexists")
	ErrClaimAlreadyExists    = errors.New("bounty claim already exists")
	ErrClaimExpired          = errors.New("bounty claim expired")
	ErrClaimCompleted        = errors.New("bounty claim pending payout")
	ErrDeadlineTooLong       = errors.New("deadline exceeds bounty maximum")
	ErrOneActionInOneBlock   = errors.New("one action in one block")
)

// State is one block's view of the governance store. Mutators follow a
// checkOnly convention: with checkOnly set they validate and return without
// touching anything, so CheckTx and FinalizeBlock share one code path.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	idxs   map[string]uint64
	acnts  map[uint64]*Account

	modifiedAcnts map[uint64]uint32

	policy    *types.Policy
	config    *types.Config
	policyMod bool
	configMod bool

	proposalMaxIndex uint64
	modProposals     map[uint64]*types.Proposal

	bountyMaxIndex uint64
	modBounties    map[uint64]*types.Bounty
	modClaims      map[string]*types.BountyClaim
	delClaims      map[string]struct{}
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:        logger,
		db:            db,
		dbVer:         0,
		header:        new(StateHeader),
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		modProposals:  make(map[uint64]*types.Proposal),
		modBounties:   make(map[uint64]*types.Bounty),
		modClaims:     make(map[string]*types.BountyClaim),
		delClaims:     make(map[string]struct{}),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:           s.logger,
		db:               s.db,
		dbVer:            s.dbVer,
		idxs:             make(map[string]uint64),
		acnts:            make(map[uint64]*Account),
		modifiedAcnts:    make(map[uint64]uint32),
		policy:           s.policy,
		config:           s.config,
		proposalMaxIndex: s.proposalMaxIndex,
		bountyMaxIndex:   s.bountyMaxIndex,
		modProposals:     make(map[uint64]*types.Proposal),
		modBounties:      make(map[uint64]*types.Bounty),
		modClaims:        make(map[string]*types.BountyClaim),
		delClaims:        make(map[string]struct{}),
	}
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone deep-copies the in-memory caches so PrepareProposal can speculatively
// apply a transaction and throw the copy away. The backing tree is shared;
// only Update writes to it.
func (s *State) Clone() *State {
	n := &State{
		logger:           s.logger,
		db:               s.db,
		dbVer:            s.dbVer,
		header:           s.header.Clone(),
		idxs:             make(map[string]uint64, len(s.idxs)),
		acnts:            make(map[uint64]*Account, len(s.acnts)),
		modifiedAcnts:    make(map[uint64]uint32, len(s.modifiedAcnts)),
		policy:           deepCopyJSON(s.policy),
		config:           deepCopyJSON(s.config),
		policyMod:        s.policyMod,
		configMod:        s.configMod,
		proposalMaxIndex: s.proposalMaxIndex,
		bountyMaxIndex:   s.bountyMaxIndex,
		modProposals:     make(map[uint64]*types.Proposal, len(s.modProposals)),
		modBounties:      make(map[uint64]*types.Bounty, len(s.modBounties)),
		modClaims:        make(map[string]*types.BountyClaim, len(s.modClaims)),
		delClaims:        make(map[string]struct{}, len(s.delClaims)),
	}
	for k, v := range s.idxs {
		n.idxs[k] = v
	}
	for k, v := range s.acnts {
		n.acnts[k] = v.Clone()
	}
	for k, v := range s.modifiedAcnts {
		n.modifiedAcnts[k] = v
	}
	for k, v := range s.modProposals {
		n.modProposals[k] = deepCopyJSON(v)
	}
	for k, v := range s.modBounties {
		n.modBounties[k] = deepCopyJSON(v)
	}
	for k, v := range s.modClaims {
		n.modClaims[k] = deepCopyJSON(v)
	}
	for k := range s.delClaims {
		n.delClaims[k] = struct{}{}
	}
	return n
}

func deepCopyJSON[T any](src *T) *T {
	if src == nil {
		return nil
	}
	dat, err := json.Marshal(src)
	if err != nil {
		return nil
	}
	dst := new(T)
	if err := json.Unmarshal(dat, dst); err != nil {
		return nil
	}
	return dst
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyProposalIndex))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.proposalMaxIndex = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyBountyIndex))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.bountyMaxIndex = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = json.Unmarshal(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		if s.header.RootHash == nil {
			s.header.RootHash = make([]byte, len(rootHash))
		}
		copy(s.header.RootHash, rootHash)
		if s.header.Hash == nil {
			s.header.Hash = make([]byte, len(h))
		}
		copy(s.header.Hash, h[:])
	}
	return
}

// Update flushes every record the block touched into the working tree and
// returns the resulting app hash. The tree version is not saved yet; save
// happens on Commit.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if s.policyMod {
		val, err = json.Marshal(s.policy)
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyPolicy), val)
		if err != nil {
			return
		}
	}
	if s.configMod {
		val, err = json.Marshal(s.config)
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyConfig), val)
		if err != nil {
			return
		}
	}

	if len(s.modProposals) != 0 {
		_, err = s.db.Set([]byte(KeyProposalIndex), big.NewInt(int64(s.proposalMaxIndex)).Bytes())
		if err != nil {
			return
		}
		idxs := sortedKeys(s.modProposals)
		for _, idx := range idxs {
			key := fmt.Sprintf(KeyProposalBody, idx)
			val, err = json.Marshal(s.modProposals[idx])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}

	if len(s.modBounties) != 0 {
		_, err = s.db.Set([]byte(KeyBountyIndex), big.NewInt(int64(s.bountyMaxIndex)).Bytes())
		if err != nil {
			return
		}
		idxs := sortedKeys(s.modBounties)
		for _, idx := range idxs {
			key := fmt.Sprintf(KeyBountyBody, idx)
			val, err = json.Marshal(s.modBounties[idx])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}
	if len(s.modClaims) != 0 {
		keys := make([]string, 0, len(s.modClaims))
		for k := range s.modClaims {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			val, err = json.Marshal(s.modClaims[k])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(k), val)
			if err != nil {
				return
			}
		}
	}
	for k := range s.delClaims {
		_, _, err = s.db.Remove([]byte(k))
		if err != nil {
			return
		}
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := sortedKeys(s.modifiedAcnts)
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = json.Marshal(acnt)
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	idxs := make([]uint64, 0, len(m))
	for idx := range m {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool {
		return idxs[i] < idxs[j]
	})
	return idxs
}

func (s *State) SetBlockTime(t int64) {
	s.header.Time = t
}

func (s *State) BlockTime() int64 {
	return s.header.Time
}

// Policy returns the active governance policy, loading it on first use.
// Callers must not mutate the result; use setPolicy for changes.
func (s *State) Policy() (*types.Policy, error) {
	if s.policy != nil {
		return s.policy, nil
	}
	val, err := s.db.Get([]byte(KeyPolicy))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	p := new(types.Policy)
	if err := json.Unmarshal(val, p); err != nil {
		return nil, err
	}
	s.policy = p
	return p, nil
}

func (s *State) setPolicy(p *types.Policy) {
	s.policy = p
	s.policyMod = true
}

// mutablePolicy returns a private copy of the active policy. The cached
// pointer is shared across state generations, so in-place edits must go
// through a copy followed by setPolicy.
func (s *State) mutablePolicy() (*types.Policy, error) {
	p, err := s.Policy()
	if err != nil {
		return nil, err
	}
	return deepCopyJSON(p), nil
}

func (s *State) Config() (*types.Config, error) {
	if s.config != nil {
		return s.config, nil
	}
	val, err := s.db.Get([]byte(KeyConfig))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	c := new(types.Config)
	if err := json.Unmarshal(val, c); err != nil {
		return nil, err
	}
	s.config = c
	return c, nil
}

func (s *State) setConfig(c *types.Config) {
	s.config = c
	s.configMod = true
}

func (s *State) GetProposalMax() uint64 {
	return s.proposalMaxIndex
}

// GetProposal returns the proposal, preferring the in-block modified copy so
// later transactions in the same block observe earlier mutations.
func (s *State) GetProposal(idx uint64) (proposal *types.Proposal, err error) {
	if p, ok := s.modProposals[idx]; ok {
		return p, nil
	}
	if idx > s.proposalMaxIndex || idx == 0 {
		err = ErrProposalNoexists
		return
	}
	key := fmt.Sprintf(KeyProposalBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrProposalNoexists
		return
	}
	proposal = new(types.Proposal)
	err = json.Unmarshal(val, proposal)
	return
}

func (s *State) putProposal(p *types.Proposal) {
	s.modProposals[p.Index] = p
}

func (s *State) GetBountyMax() uint64 {
	return s.bountyMaxIndex
}

func (s *State) GetBounty(idx uint64) (bounty *types.Bounty, err error) {
	if b, ok := s.modBounties[idx]; ok {
		return b, nil
	}
	if idx > s.bountyMaxIndex || idx == 0 {
		err = ErrBountyNoexists
		return
	}
	key := fmt.Sprintf(KeyBountyBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrBountyNoexists
		return
	}
	bounty = new(types.Bounty)
	err = json.Unmarshal(val, bounty)
	return
}

func (s *State) putBounty(b *types.Bounty) {
	s.modBounties[b.ID] = b
}

func claimKey(bounty uint64, addr string) string {
	return fmt.Sprintf(KeyBountyClaim, bounty, addr)
}

func (s *State) GetBountyClaim(bounty uint64, addr string) (claim *types.BountyClaim, err error) {
	key := claimKey(bounty, addr)
	if _, gone := s.delClaims[key]; gone {
		return nil, ErrClaimNoexists
	}
	if c, ok := s.modClaims[key]; ok {
		return c, nil
	}
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrClaimNoexists
	}
	claim = new(types.BountyClaim)
	err = json.Unmarshal(val, claim)
	return
}

func (s *State) putBountyClaim(addr string, c *types.BountyClaim) {
	key := claimKey(c.BountyID, addr)
	delete(s.delClaims, key)
	s.modClaims[key] = c
}

func (s *State) dropBountyClaim(bounty uint64, addr string) {
	key := claimKey(bounty, addr)
	delete(s.modClaims, key)
	s.delClaims[key] = struct{}{}
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = json.Unmarshal(val, acnt)
	if err != nil {
		acnt = nil
		return
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) existPubkey(pubkey []byte) (bool, error) {
	addr := ed25519.PubKey(pubkey).Address()[:]
	saddr := cmtcrypto.Address(addr).String()
	if _, ok := s.idxs[saddr]; ok {
		return true, nil
	}
	key := fmt.Sprintf(KeyAccountIndex, saddr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return false, err
		}
	}
	if val != nil {
		return true, nil
	}
	for _, acc := range s.acnts {
		if bytes.Equal(acc.AddrBytes(), addr) {
			return true, nil
		}
	}
	return false, nil
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	return s.FindAccountByAddress(saddr)
}

func (s *State) FindAccountByAddress(saddr string) (acnt *Account, err error) {
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) TotalSupply() uint64 {
	return s.header.TotalSupply
}

func (s *State) Treasury() uint64 {
	return s.header.Treasury
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.header.TotalSupply += acnt.Balance
	s.acnts[acnt.Index] = acnt.Clone()
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	return
}

// Verify checks the sender account exists, the nonce lines up and the
// signature covers the envelope salted with the chain id.
func (s *State) Verify(gtx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.FindAccountByAddress(gtx.Sender)
	if err != nil {
		return succ, err
	}
	if a == nil {
		err = ErrTxSenderNoexists
		return
	}
	if !(a.Nonce == gtx.Nonce || (allowNonceGap && a.Nonce < gtx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := gtx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, gtx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// senderAccount resolves the sender and requires it to exist.
func (s *State) senderAccount(sender string) (*Account, error) {
	a, err := s.FindAccountByAddress(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrTxSenderNoexists
	}
	return a, nil
}

func (s *State) markAccountModified(a *Account) {
	v := s.modifiedAcnts[a.Index]
	v |= ModifiedFlagMod
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a.Clone()
}

func (s *State) bumpNonce(a *Account) {
	a.Nonce += 1
	s.markAccountModified(a)
}

// bond moves amount from the account's free balance into escrow. Bonded
// tokens stop counting toward voting weight and role membership until
// released.
func (s *State) bond(a *Account, amount uint64) error {
	if a.Balance < amount {
		return ErrInsufficientBond
	}
	a.Balance -= amount
	a.Bonded += amount
	s.header.TotalSupply -= amount
	s.markAccountModified(a)
	return nil
}

// releaseBond returns escrowed tokens to the account's free balance.
func (s *State) releaseBond(addr string, amount uint64) error {
	a, err := s.FindAccountByAddress(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	amount = min(amount, a.Bonded)
	a.Bonded -= amount
	a.Balance += amount
	s.header.TotalSupply += amount
	s.markAccountModified(a)
	return nil
}

// forfeitBond moves escrowed tokens into the treasury.
func (s *State) forfeitBond(addr string, amount uint64) error {
	a, err := s.FindAccountByAddress(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	amount = min(amount, a.Bonded)
	a.Bonded -= amount
	s.header.Treasury += amount
	s.markAccountModified(a)
	return nil
}

// payFromTreasury credits an account from the treasury, failing when the
// treasury cannot cover the amount.
func (s *State) payFromTreasury(addr string, amount uint64) error {
	if s.header.Treasury < amount {
		return ErrInsufficientBalance
	}
	a, err := s.FindAccountByAddress(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	s.header.Treasury -= amount
	a.Balance += amount
	s.header.TotalSupply += amount
	s.markAccountModified(a)
	return nil
}

// voteWeight is the sender's tally contribution under the vote policy in
// force for the proposal: free balance for token weight, one head otherwise.
func voteWeight(vp types.VotePolicy, a *Account) uint64 {
	if vp.WeightKind == types.TokenWeight {
		return a.Balance
	}
	return 1
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}
		end = end[:len(end)-1]
		if len(end) == 0 {
			end = nil
			break
		}
	}
	return end
}
