package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getBounties", s.handleGetBounties)
	s.engine.POST("/getCalls", s.handleGetCalls)
	return s
}

func (s *Service) Start() {
	s.engine.Run(s.listenAddr)
}

type ProposalInfo struct {
	Proposal   Proposal       `json:"proposal"`
	Versions   []Version      `json:"versions"`
	Votes      []Vote         `json:"votes"`
	Executions []Execution    `json:"executions"`
	Calls      []ExternalCall `json:"calls"`
}

type GetProposalsReq struct {
	ProposalId      uint64 `json:"proposalId"`
	ProposerAddress string `json:"proposer"`
	Status          uint64 `json:"status"`
	Page            int    `json:"page"`
	PageSize        int    `json:"pageSize"`
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != 0 {
		proposal, err := s.indexer.getProposalById(requestData.ProposalId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	var proposals []Proposal
	var total uint64
	var err error
	switch {
	case requestData.ProposerAddress != "":
		proposals, total, err = s.indexer.getProposalsByProposerAddr(requestData.ProposerAddress, requestData.Page, requestData.PageSize)
	case requestData.Status != 0:
		proposals, total, err = s.indexer.getProposalsByStatus(requestData.Status, requestData.Page, requestData.PageSize)
	default:
		proposals, total, err = s.indexer.getProposals(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response.Total = total
	for _, proposal := range proposals {
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) proposalInfo(proposal Proposal) (ProposalInfo, error) {
	info := ProposalInfo{Proposal: proposal}
	versions, err := s.indexer.getVersionsByProposal(proposal.Id)
	if err != nil {
		return info, err
	}
	votes, err := s.indexer.getVotesByProposal(proposal.Id, 0, 1000)
	if err != nil {
		return info, err
	}
	execs, err := s.indexer.getExecutionsByProposal(proposal.Id)
	if err != nil {
		return info, err
	}
	calls, err := s.indexer.getCallsByProposal(proposal.Id)
	if err != nil {
		return info, err
	}
	info.Versions = versions
	info.Votes = votes
	info.Executions = execs
	info.Calls = calls
	return info, nil
}

type GetVotesReq struct {
	ProposalId   uint64 `json:"proposalId"`
	VoterAddress string `json:"voter"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var response GetVotesResponse
	response.Votes = make([]Vote, 0)
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var votes []Vote
	var err error
	if requestData.ProposalId != 0 {
		votes, err = s.indexer.getVotesByProposal(requestData.ProposalId, requestData.Page, requestData.PageSize)
	} else if requestData.VoterAddress != "" {
		votes, err = s.indexer.getVotesByVoter(requestData.VoterAddress, requestData.Page, requestData.PageSize)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Votes = votes
	c.JSON(http.StatusOK, response)
}

type GetBountiesReq struct {
	BountyId uint64 `json:"bountyId"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetBountiesResponse struct {
	Events []BountyEvent `json:"events"`
	Total  uint64        `json:"total"`
}

func (s *Service) handleGetBounties(c *gin.Context) {
	var response GetBountiesResponse
	response.Events = make([]BountyEvent, 0)
	var requestData GetBountiesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, total, err := s.indexer.getBountyEvents(requestData.BountyId, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Events = events
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetCallsReq struct {
	ProposalId uint64 `json:"proposalId"`
}

type GetCallsResponse struct {
	Calls []ExternalCall `json:"calls"`
}

func (s *Service) handleGetCalls(c *gin.Context) {
	var response GetCallsResponse
	response.Calls = make([]ExternalCall, 0)
	var requestData GetCallsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId is required"})
		return
	}
	calls, err := s.indexer.getCallsByProposal(requestData.ProposalId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Calls = calls
	c.JSON(http.StatusOK, response)
}
