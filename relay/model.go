package relay

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id              uint64 `gorm:"primaryKey" json:"id"`
	Kind            string `json:"kind"`
	ProposerAddress string `json:"proposer_address"`
	Status          uint64 `json:"status"`
	ApprovedVersion uint64 `json:"approved_version"`
	Height          uint64 `json:"height"`
	CreateTimestamp int64  `json:"create_timestamp"`
}

type Version struct {
	Id              uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal        uint64 `json:"proposal"`
	Version         uint64 `json:"version"`
	ProposerAddress string `json:"proposer_address"`
	Height          uint64 `json:"height"`
}

type Vote struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal     uint64 `json:"proposal"`
	VoterAddress string `json:"voter_address"`
	Kind         uint64 `json:"kind"`
	Version      uint64 `json:"version"`
	Weight       uint64 `json:"weight"`
	Height       uint64 `json:"height"`
}

type BountyEvent struct {
	Id      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Bounty  uint64 `json:"bounty"`
	Account string `json:"account"`
	Change  string `json:"change"`
	Height  uint64 `json:"height"`
}

// ExternalCall is a suspended function-call instruction waiting for its
// callback. Done flips once the callback transaction is accepted.
type ExternalCall struct {
	Id       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal uint64 `json:"proposal"`
	Seq      uint64 `json:"seq"`
	Receiver string `json:"receiver"`
	Calls    string `json:"calls"`
	Done     bool   `json:"done"`
	Success  bool   `json:"success"`
	Height   uint64 `json:"height"`
}

type Execution struct {
	Id       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal uint64 `json:"proposal"`
	Version  uint64 `json:"version"`
	Success  bool   `json:"success"`
	Detail   string `json:"detail"`
	Height   uint64 `json:"height"`
}
