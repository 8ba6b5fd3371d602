package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProposalType     = "proposal"
	EventVersionType      = "proposal_version"
	EventVoteType         = "vote"
	EventResolutionType   = "resolution"
	EventExternalCallType = "external_call"
	EventExecutionType    = "execution"
	EventBountyType       = "bounty"
)

type EventProposal struct {
	Proposal        uint64 `json:"proposal"`
	Kind            string `json:"kind"`
	ProposerAddress string `json:"proposerAddress"`
	Status          uint64 `json:"status"`
}

func EncodeEventProposal(event *EventProposal) abci.Event {
	return abci.Event{
		Type: EventProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "kind", Value: event.Kind, Index: true},
			{Key: "proposerAddress", Value: event.ProposerAddress, Index: false},
			{Key: "status", Value: fmt.Sprintf("%v", event.Status), Index: false},
		},
	}
}

func DecodeEventProposal(originEvent abci.Event) *EventProposal {
	event := &EventProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "kind":
			event.Kind = v.Value
		case "proposerAddress":
			event.ProposerAddress = v.Value
		case "status":
			status, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Status = status
		}
	}
	return event
}

type EventVersion struct {
	Proposal        uint64 `json:"proposal"`
	Version         uint64 `json:"version"`
	ProposerAddress string `json:"proposerAddress"`
}

func EncodeEventVersion(event *EventVersion) abci.Event {
	return abci.Event{
		Type: EventVersionType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "version", Value: fmt.Sprintf("%v", event.Version), Index: false},
			{Key: "proposerAddress", Value: event.ProposerAddress, Index: false},
		},
	}
}

func DecodeEventVersion(originEvent abci.Event) *EventVersion {
	event := &EventVersion{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "version":
			version, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Version = version
		case "proposerAddress":
			event.ProposerAddress = v.Value
		}
	}
	return event
}

type EventVote struct {
	Proposal     uint64 `json:"proposal"`
	VoterAddress string `json:"voterAddress"`
	Kind         uint64 `json:"voteKind"`
	Version      uint64 `json:"version"`
	Weight       uint64 `json:"weight"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "voterAddress", Value: event.VoterAddress, Index: true},
			{Key: "voteKind", Value: fmt.Sprintf("%v", event.Kind), Index: false},
			{Key: "version", Value: fmt.Sprintf("%v", event.Version), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "voterAddress":
			event.VoterAddress = v.Value
		case "voteKind":
			kind, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Kind = kind
		case "version":
			version, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Version = version
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

// EventResolution records every proposal status transition out of Open.
type EventResolution struct {
	Proposal uint64 `json:"proposal"`
	Status   uint64 `json:"status"`
	Version  uint64 `json:"version"`
}

func EncodeEventResolution(event *EventResolution) abci.Event {
	return abci.Event{
		Type: EventResolutionType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "status", Value: fmt.Sprintf("%v", event.Status), Index: true},
			{Key: "version", Value: fmt.Sprintf("%v", event.Version), Index: false},
		},
	}
}

func DecodeEventResolution(originEvent abci.Event) *EventResolution {
	event := &EventResolution{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "status":
			status, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Status = status
		case "version":
			version, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Version = version
		}
	}
	return event
}

// EventExternalCall announces a suspended FunctionCall instruction. The
// relay watches for it, performs the call and submits the callback
// transaction carrying the same sequence number.
type EventExternalCall struct {
	Proposal uint64       `json:"proposal"`
	Seq      uint64       `json:"seq"`
	Receiver string       `json:"receiver"`
	Calls    []CallAction `json:"calls"`
}

func EncodeEventExternalCall(event *EventExternalCall) abci.Event {
	calls, _ := json.Marshal(event.Calls)
	return abci.Event{
		Type: EventExternalCallType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "seq", Value: fmt.Sprintf("%v", event.Seq), Index: true},
			{Key: "receiver", Value: event.Receiver, Index: false},
			{Key: "calls", Value: string(calls), Index: false},
		},
	}
}

func DecodeEventExternalCall(originEvent abci.Event) *EventExternalCall {
	event := &EventExternalCall{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "seq":
			seq, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Seq = seq
		case "receiver":
			event.Receiver = v.Value
		case "calls":
			if err := json.Unmarshal([]byte(v.Value), &event.Calls); err != nil {
				return nil
			}
		}
	}
	return event
}

// EventExecution records the final outcome of a proposal's execution.
type EventExecution struct {
	Proposal uint64 `json:"proposal"`
	Version  uint64 `json:"version"`
	Success  bool   `json:"success"`
	Detail   string `json:"detail"`
}

func EncodeEventExecution(event *EventExecution) abci.Event {
	return abci.Event{
		Type: EventExecutionType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.Proposal), Index: true},
			{Key: "version", Value: fmt.Sprintf("%v", event.Version), Index: false},
			{Key: "success", Value: strconv.FormatBool(event.Success), Index: true},
			{Key: "detail", Value: event.Detail, Index: false},
		},
	}
}

func DecodeEventExecution(originEvent abci.Event) *EventExecution {
	event := &EventExecution{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposal = proposal
		case "version":
			version, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Version = version
		case "success":
			success, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Success = success
		case "detail":
			event.Detail = v.Value
		}
	}
	return event
}

const (
	BountyEventClaimed = "claimed"
	BountyEventDone    = "done"
	BountyEventGiveup  = "giveup"
	BountyEventPaid    = "paid"
)

type EventBounty struct {
	Bounty  uint64 `json:"bounty"`
	Account string `json:"account"`
	Change  string `json:"change"`
}

func EncodeEventBounty(event *EventBounty) abci.Event {
	return abci.Event{
		Type: EventBountyType,
		Attributes: []abci.EventAttribute{
			{Key: "bounty", Value: fmt.Sprintf("%v", event.Bounty), Index: true},
			{Key: "account", Value: event.Account, Index: true},
			{Key: "change", Value: event.Change, Index: false},
		},
	}
}

func DecodeEventBounty(originEvent abci.Event) *EventBounty {
	event := &EventBounty{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "bounty":
			bounty, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Bounty = bounty
		case "account":
			event.Account = v.Value
		case "change":
			event.Change = v.Value
		}
	}
	return event
}
