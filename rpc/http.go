package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/traderjoe-xyz/auto-pool-token-farm/farm"
)

// Server exposes the read-only reporting projection of a farm ledger. It
// never mutates the ledger; correctness of the core does not depend on it.
type Server struct {
	ledger *farm.Ledger
}

// NewServer wraps the supplied ledger.
func NewServer(ledger *farm.Ledger) *Server {
	return &Server{ledger: ledger}
}

// Router builds the HTTP routes. The metrics handler is mounted when
// supplied.
func (s *Server) Router(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/pools", s.handlePools)
		r.Get("/pools/{pid}", s.handlePool)
		r.Get("/pools/{pid}/positions/{address}", s.handlePosition)
		r.Get("/pools/{pid}/pending/{address}", s.handlePending)
	})
	return r
}

type poolPayload struct {
	PoolID            uint64 `json:"poolId"`
	StakedToken       string `json:"stakedToken"`
	AccRewardPerShare string `json:"accRewardPerShare"`
	LastRewardTime    int64  `json:"lastRewardTime"`
	RatePerSecond     string `json:"ratePerSecond"`
	TotalStaked       string `json:"totalStaked"`
	Rewarder          string `json:"rewarder,omitempty"`
}

type positionPayload struct {
	PoolID     uint64 `json:"poolId"`
	User       string `json:"user"`
	Amount     string `json:"amount"`
	RewardDebt string `json:"rewardDebt"`
}

type pendingPayload struct {
	PoolID      uint64 `json:"poolId"`
	User        string `json:"user"`
	Primary     string `json:"primary"`
	RewardToken string `json:"rewardToken"`
	BonusToken  string `json:"bonusToken,omitempty"`
	BonusSymbol string `json:"bonusSymbol,omitempty"`
	Bonus       string `json:"bonus,omitempty"`
}

func poolToPayload(v farm.PoolView) poolPayload {
	p := poolPayload{
		PoolID:            v.PoolID,
		StakedToken:       strings.ToLower(v.StakedToken.Hex()),
		AccRewardPerShare: v.AccRewardPerShare.String(),
		LastRewardTime:    v.LastRewardTime,
		RatePerSecond:     v.RatePerSecond.String(),
		TotalStaked:       v.TotalStaked.String(),
	}
	if v.Rewarder != (common.Address{}) {
		p.Rewarder = strings.ToLower(v.Rewarder.Hex())
	}
	return p
}

func (s *Server) handlePools(w http.ResponseWriter, _ *http.Request) {
	count := s.ledger.PoolCount()
	pools := make([]poolPayload, 0, count)
	for pid := uint64(0); pid < count; pid++ {
		view, err := s.ledger.PoolByID(pid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		pools = append(pools, poolToPayload(view))
	}
	writeJSON(w, map[string]any{"count": count, "pools": pools})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	pid, ok := parsePoolID(w, r)
	if !ok {
		return
	}
	view, err := s.ledger.PoolByID(pid)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, poolToPayload(view))
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	pid, ok := parsePoolID(w, r)
	if !ok {
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	view, err := s.ledger.Position(pid, addr)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, positionPayload{
		PoolID:     view.PoolID,
		User:       strings.ToLower(view.User.Hex()),
		Amount:     view.Amount.String(),
		RewardDebt: view.RewardDebt.String(),
	})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pid, ok := parsePoolID(w, r)
	if !ok {
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	pending, err := s.ledger.PendingReward(pid, addr)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	payload := pendingPayload{
		PoolID:      pid,
		User:        strings.ToLower(addr.Hex()),
		Primary:     pending.Primary.String(),
		RewardToken: strings.ToLower(s.ledger.RewardToken().Hex()),
	}
	if pending.BonusSymbol != "" || pending.Bonus.Sign() > 0 {
		payload.BonusToken = strings.ToLower(pending.BonusToken.Hex())
		payload.BonusSymbol = pending.BonusSymbol
		payload.Bonus = pending.Bonus.String()
	}
	writeJSON(w, payload)
}

func parsePoolID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	pid, err := strconv.ParseUint(chi.URLParam(r, "pid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid pool id"))
		return 0, false
	}
	return pid, true
}

func parseAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, errors.New("invalid address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
