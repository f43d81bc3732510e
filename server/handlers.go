package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/session"
)

const (
	defaultK       = 20
	maxK           = 100
	defaultRandomN = 10
	maxRandomN     = 50
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"status": "ok",
		"loaded": s.engine.Loaded(),
	}
	code := http.StatusOK
	if !s.engine.Loaded() {
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleRecommendations 处理相似推荐。q 与 seed_bottle_id 互斥，
// 两者都给或都不给都是请求形状错误。
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	seedRaw := r.URL.Query().Get("seed_bottle_id")

	if (query == "") == (seedRaw == "") {
		badRequest(w, "exactly one of q or seed_bottle_id is required")
		return
	}

	k := defaultK
	if kRaw := r.URL.Query().Get("k"); kRaw != "" {
		n, err := strconv.Atoi(kRaw)
		if err != nil || n < 1 || n > maxK {
			badRequest(w, "k must be an integer in [1,100]")
			return
		}
		k = n
	}

	var (
		ids    []int64
		err    error
		mode   string
		seedID *int64
	)
	if seedRaw != "" {
		seed, perr := strconv.ParseInt(seedRaw, 10, 64)
		if perr != nil {
			badRequest(w, "seed_bottle_id must be an integer")
			return
		}
		mode = "seed"
		seedID = &seed
		ids, err = s.engine.RecommendByItem(r.Context(), seed, k)
	} else {
		mode = "query"
		ids, err = s.engine.RecommendByText(r.Context(), query, k)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.hydrate(r, ids)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Mode:         mode,
		SeedBottleID: seedID,
		Query:        query,
		K:            k,
		Results:      toBottles(items),
	})
}

// handleCandidates 返回发现会话用的固定批大小候选。
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	seedRaw := r.URL.Query().Get("seed_bottle_id")
	if seedRaw == "" {
		badRequest(w, "seed_bottle_id is required")
		return
	}
	seed, err := strconv.ParseInt(seedRaw, 10, 64)
	if err != nil {
		badRequest(w, "seed_bottle_id must be an integer")
		return
	}

	ids, err := s.engine.Candidates(r.Context(), seed, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(ids) == 0 {
		writeError(w, core.ErrEmptyPool)
		return
	}

	items, err := s.hydrate(r, ids)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidatesResponse{
		SeedBottleID: seed,
		Results:      toBottles(items),
	})
}

func (s *Server) handleRandomBottles(w http.ResponseWriter, r *http.Request) {
	limit := defaultRandomN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRandomN {
			badRequest(w, "limit must be an integer in [1,50]")
			return
		}
		limit = n
	}

	items, err := s.catalog.FetchRandom(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toBottles(items)})
}

func (s *Server) handleBottleByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bottleID"), 10, 64)
	if err != nil {
		badRequest(w, "bottle id must be an integer")
		return
	}

	item, err := s.catalog.FetchByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBottle(item))
}

// handleSwipe 记录一次独立交互（非会话化客户端用）。
func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Action != core.ActionLike && req.Action != core.ActionPass {
		badRequest(w, "action must be like or pass")
		return
	}
	// 目录 ID 从 0 开始，0 是合法瓶子
	if req.BottleID < 0 {
		badRequest(w, "bottle_id must not be negative")
		return
	}

	if err := s.catalog.LogInteraction(r.Context(), req.BottleID, req.Action); err != nil {
		writeError(w, err)
		return
	}
	if s.collector != nil {
		s.collector.Record(req.SessionID, req.BottleID, req.Action)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// 会话端点

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	m := s.sessions.Create()
	item, err := m.Start(r.Context())
	if err != nil {
		s.sessions.End(m.ID())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionState(m, item))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	m := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if m == nil {
		writeError(w, core.NewDomainError(core.ModuleSession, core.ErrorCodeNotFound, "session not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.sessionState(m, nil))
}

func (s *Server) handleSessionLike(w http.ResponseWriter, r *http.Request) {
	m := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if m == nil {
		writeError(w, core.NewDomainError(core.ModuleSession, core.ErrorCodeNotFound, "session not found"))
		return
	}
	prev := m.Snapshot().Current
	item, err := m.Like(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if s.collector != nil && prev != nil {
		s.collector.Record(m.ID(), prev.ID, core.ActionLike)
	}
	writeJSON(w, http.StatusOK, s.sessionState(m, item))
}

func (s *Server) handleSessionPass(w http.ResponseWriter, r *http.Request) {
	m := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if m == nil {
		writeError(w, core.NewDomainError(core.ModuleSession, core.ErrorCodeNotFound, "session not found"))
		return
	}
	prev := m.Snapshot().Current
	item, err := m.Pass(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if s.collector != nil && prev != nil {
		s.collector.Record(m.ID(), prev.ID, core.ActionPass)
	}
	writeJSON(w, http.StatusOK, s.sessionState(m, item))
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionState(m *session.Machine, current *core.Item) sessionResponse {
	snap := m.Snapshot()
	if current == nil {
		current = snap.Current
	}
	resp := sessionResponse{
		SessionID:    m.ID(),
		Mode:         string(snap.Mode),
		QueueLen:     snap.QueueLen,
		PassLifeUsed: snap.PassLifeUsed,
		SeenCount:    snap.SeenCount,
	}
	if current != nil {
		b := toBottle(current)
		resp.Current = &b
	}
	return resp
}

// hydrate 按引擎给出的排序补全目录记录。
func (s *Server) hydrate(r *http.Request, ids []int64) ([]*core.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.catalog.FetchByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	return core.ReorderByIDs(ids, rows), nil
}
