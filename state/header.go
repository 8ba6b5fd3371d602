package state

// StateHeader is the singleton record persisted under KeyState. It carries
// the chain identity and the running counters the engine needs to restart
// from a cold store.
type StateHeader struct {
	ChainId     string `json:"chainId"`
	Height      uint64 `json:"height"`
	Time        int64  `json:"time"`
	AccountIdx  uint64 `json:"accountIdx"`
	TotalSupply uint64 `json:"totalSupply"`
	Treasury    uint64 `json:"treasury"`
	Hash        []byte `json:"hash"`
	RootHash    []byte `json:"rootHash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	if h.Hash != nil {
		n.Hash = make([]byte, len(h.Hash))
		copy(n.Hash, h.Hash)
	}
	if h.RootHash != nil {
		n.RootHash = make([]byte, len(h.RootHash))
		copy(n.RootHash, h.RootHash)
	}
	return &n
}
