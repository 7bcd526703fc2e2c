package indexer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
	srv        *http.Server
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getMembers", s.handleGetMembers)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getProjects", s.handleGetProjects)
	s.engine.POST("/getFlows", s.handleGetFlows)
	s.engine.POST("/getTokenTransfers", s.handleGetTokenTransfers)
	s.srv = &http.Server{Addr: listenAddr, Handler: r}
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type PageReq struct {
	Page     int `json:"page" binding:"min=0"`
	PageSize int `json:"pageSize" binding:"min=0,max=100"`
}

func (p PageReq) size() int {
	if p.PageSize == 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

type GetMembersReq struct {
	PageReq
	Active bool `json:"active"`
}

type GetMembersResponse struct {
	Members []Member `json:"members"`
	Total   uint64   `json:"total"`
}

func (s *Service) handleGetMembers(c *gin.Context) {
	var requestData GetMembersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	members, total, err := s.indexer.getMembers(requestData.Active, requestData.Page, requestData.size())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetMembersResponse{Members: members, Total: total})
}

type GetProposalsReq struct {
	PageReq
	ProposalId uint64 `json:"proposalId"`
	Project    string `json:"project"`
	Voter      string `json:"voter"`
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Votes     []Vote         `json:"votes,omitempty"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.Voter != "" {
		votes, err := s.indexer.getVotesByVoter(requestData.Voter, requestData.Page, requestData.size())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Votes = votes
		response.Total = uint64(len(votes))
		c.JSON(http.StatusOK, response)
		return
	}

	if requestData.ProposalId != 0 {
		proposal, err := s.indexer.getProposalById(requestData.ProposalId)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		votes, err := s.indexer.getVotesByProposal(proposal.Id, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	proposals, total, err := s.indexer.getProposals(requestData.Project, requestData.Page, requestData.size())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, proposal := range proposals {
		votes, err := s.indexer.getVotesByProposal(proposal.Id, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

type GetProjectsReq struct {
	PageReq
	Address string `json:"address"`
	Status  string `json:"status"`
}

type GetProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    uint64    `json:"total"`
}

func (s *Service) handleGetProjects(c *gin.Context) {
	var requestData GetProjectsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.Address != "" {
		project, err := s.indexer.getProjectByAddress(requestData.Address)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, GetProjectsResponse{Projects: []Project{project}, Total: 1})
		return
	}
	projects, total, err := s.indexer.getProjects(requestData.Status, requestData.Page, requestData.size())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if projects == nil {
		projects = make([]Project, 0)
	}
	c.JSON(http.StatusOK, GetProjectsResponse{Projects: projects, Total: total})
}

type GetFlowsReq struct {
	PageReq
	Kind    string `json:"kind" binding:"omitempty,oneof=donation release refund reward"`
	Project string `json:"project"`
	Account string `json:"account"`
}

type GetFlowsResponse struct {
	Flows []Flow `json:"flows"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetFlows(c *gin.Context) {
	var requestData GetFlowsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flows, total, err := s.indexer.getFlows(requestData.Kind, requestData.Project, requestData.Account, requestData.Page, requestData.size())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if flows == nil {
		flows = make([]Flow, 0)
	}
	c.JSON(http.StatusOK, GetFlowsResponse{Flows: flows, Total: total})
}

type GetTokenTransfersReq struct {
	PageReq
	Account string `json:"account"`
}

type GetTokenTransfersResponse struct {
	Transfers []TokenTransfer `json:"transfers"`
}

func (s *Service) handleGetTokenTransfers(c *gin.Context) {
	var requestData GetTokenTransfersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transfers, err := s.indexer.getTokenTransfers(requestData.Account, requestData.Page, requestData.size())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if transfers == nil {
		transfers = make([]TokenTransfer, 0)
	}
	c.JSON(http.StatusOK, GetTokenTransfersResponse{Transfers: transfers})
}
