package agent

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	notes      *NoteArchive
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer, notes *NoteArchive) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		engine:     r,
		indexer:    indexer,
		notes:      notes,
		listenAddr: listenAddr,
	}
	s.engine.GET("/candidates", s.handleGetCandidates)
	s.engine.GET("/council", s.handleGetCouncil)
	s.engine.GET("/elections", s.handleGetElections)
	s.engine.GET("/payments/:member", s.handleGetPayments)
	s.engine.GET("/budget", s.handleGetBudget)
	s.engine.GET("/notes/:hash", s.handleGetNote)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

type PageReq struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

func (p *PageReq) normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize <= 0 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

type GetCandidatesReq struct {
	Cycle  *uint64 `form:"cycle"`
	Status string  `form:"status"`
}

type GetCandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
}

func (s *Service) handleGetCandidates(c *gin.Context) {
	var req GetCandidatesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	candidates, err := s.indexer.getCandidates(req.Cycle, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	c.JSON(http.StatusOK, GetCandidatesResponse{Candidates: candidates})
}

type GetCouncilResponse struct {
	Members []Councilor `json:"members"`
}

func (s *Service) handleGetCouncil(c *gin.Context) {
	members, err := s.indexer.getCouncil()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if members == nil {
		members = []Councilor{}
	}
	c.JSON(http.StatusOK, GetCouncilResponse{Members: members})
}

type GetElectionsResponse struct {
	Elections []Election `json:"elections"`
	Total     uint64     `json:"total"`
}

func (s *Service) handleGetElections(c *gin.Context) {
	var req PageReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.normalize()
	elections, total, err := s.indexer.getElections(req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if elections == nil {
		elections = []Election{}
	}
	c.JSON(http.StatusOK, GetElectionsResponse{Elections: elections, Total: total})
}

type GetPaymentsResponse struct {
	Payments []RewardPayment `json:"payments"`
	Total    uint64          `json:"total"`
}

func (s *Service) handleGetPayments(c *gin.Context) {
	member, err := strconv.ParseUint(c.Param("member"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member"})
		return
	}
	var req PageReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.normalize()
	payments, total, err := s.indexer.getPaymentsByMember(member, req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if payments == nil {
		payments = []RewardPayment{}
	}
	c.JSON(http.StatusOK, GetPaymentsResponse{Payments: payments, Total: total})
}

type GetBudgetResponse struct {
	Entries []BudgetEntry `json:"entries"`
	Total   uint64        `json:"total"`
}

func (s *Service) handleGetBudget(c *gin.Context) {
	var req PageReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.normalize()
	entries, total, err := s.indexer.getBudgetEntries(req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []BudgetEntry{}
	}
	c.JSON(http.StatusOK, GetBudgetResponse{Entries: entries, Total: total})
}

type GetNoteResponse struct {
	Hash string `json:"hash"`
	Note string `json:"note"`
}

func (s *Service) handleGetNote(c *gin.Context) {
	hash, err := hex.DecodeString(c.Param("hash"))
	if err != nil || len(hash) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
		return
	}
	if s.notes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNoteNotFound.Error()})
		return
	}
	note, err := s.notes.Get(hash)
	if errors.Is(err, ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetNoteResponse{Hash: hex.EncodeToString(hash), Note: string(note)})
}
