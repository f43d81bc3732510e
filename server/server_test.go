package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/VibhavTh/Sniftr/catalog"
	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/recommend"
	"github.com/VibhavTh/Sniftr/session"
	"github.com/VibhavTh/Sniftr/vectorspace"
)

func newTestServer(t *testing.T) (*Server, *catalog.MemoryCatalog) {
	t.Helper()

	corpus := []struct {
		id      int64
		name    string
		accords []string
		notes   []string
	}{
		{1, "Cedar One", []string{"woody"}, []string{"cedar", "musk", "vetiver"}},
		{2, "Cedar Two", []string{"woody"}, []string{"cedar", "musk", "amber"}},
		{3, "Fresh Woods", []string{"woody", "fresh"}, []string{"bergamot", "cedar"}},
		{4, "Rose Noir", []string{"floral"}, []string{"rose", "jasmine"}},
		{5, "Peony Blush", []string{"floral"}, []string{"rose", "peony"}},
		{6, "Lemon Zest", []string{"citrus"}, []string{"lemon", "bergamot"}},
	}
	items := make([]*core.Item, 0, len(corpus))
	for _, c := range corpus {
		it := core.NewItem(c.id)
		it.Name = c.name
		it.MainAccords = c.accords
		it.NotesTop = c.notes
		items = append(items, it)
	}

	opts := vectorspace.DefaultBuilderOptions()
	opts.Vectorizer.MinDocFreq = 1
	arts, err := vectorspace.Build(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("构建工件失败: %v", err)
	}
	engine, err := recommend.NewEngineFromArtifacts(arts, recommend.DefaultConfig())
	if err != nil {
		t.Fatalf("构建引擎失败: %v", err)
	}

	cat := catalog.NewMemoryCatalog(items, 1)
	sessions := session.NewManager(engine, cat, session.DefaultConfig())
	return New(":0", engine, cat, sessions, nil), cat
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("状态码 = %d, 期望 200", rec.Code)
	}
}

func TestRecommendationsQueryModes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		expected int
	}{
		{"种子模式", "/recommendations?seed_bottle_id=1", http.StatusOK},
		{"查询模式", "/recommendations?q=woody+cedar", http.StatusOK},
		{"两者都给", "/recommendations?q=woody&seed_bottle_id=1", http.StatusBadRequest},
		{"两者都不给", "/recommendations", http.StatusBadRequest},
		{"k 越界", "/recommendations?q=woody&k=500", http.StatusBadRequest},
		{"k 非法", "/recommendations?q=woody&k=abc", http.StatusBadRequest},
		{"种子非法", "/recommendations?seed_bottle_id=xyz", http.StatusBadRequest},
		{"种子不存在", "/recommendations?seed_bottle_id=999", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, tt.path, nil)
			if rec.Code != tt.expected {
				t.Errorf("状态码 = %d, 期望 %d (body: %s)", rec.Code, tt.expected, rec.Body.String())
			}
		})
	}
}

func TestRecommendationsSeedExcluded(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/recommendations?seed_bottle_id=1&k=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d: %s", rec.Code, rec.Body.String())
	}

	var resp recommendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Mode != "seed" || resp.K != 5 {
		t.Errorf("响应元数据 = %+v", resp)
	}
	if len(resp.Results) == 0 {
		t.Fatal("应返回推荐结果")
	}
	for _, b := range resp.Results {
		if b.OriginalIndex == 1 {
			t.Error("种子物品不得出现在结果中")
		}
		if b.Name == "" {
			t.Error("结果应补全目录字段")
		}
	}
}

func TestSwipeCandidates(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/swipe/candidates?seed_bottle_id=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d: %s", rec.Code, rec.Body.String())
	}

	var resp candidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SeedBottleID != 1 || len(resp.Results) == 0 {
		t.Errorf("候选响应 = %+v", resp)
	}

	rec = doRequest(t, srv, http.MethodGet, "/swipe/candidates", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("缺失种子状态码 = %d, 期望 400", rec.Code)
	}
}

func TestRandomBottles(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/bottles/random?limit=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d", rec.Code)
	}
	var resp struct {
		Results []Bottle `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("随机条数 = %d, 期望 3", len(resp.Results))
	}

	rec = doRequest(t, srv, http.MethodGet, "/bottles/random?limit=999", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit 越界状态码 = %d, 期望 400", rec.Code)
	}
}

func TestBottleByID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/bottles/4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d", rec.Code)
	}
	var b Bottle
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if b.OriginalIndex != 4 || b.Name != "Rose Noir" {
		t.Errorf("详情 = %+v", b)
	}

	rec = doRequest(t, srv, http.MethodGet, "/bottles/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("缺失物品状态码 = %d, 期望 404", rec.Code)
	}
}

func TestSwipeEndpoint(t *testing.T) {
	srv, cat := newTestServer(t)

	body, _ := json.Marshal(swipeRequest{BottleID: 1, Action: "like"})
	rec := doRequest(t, srv, http.MethodPost, "/swipes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("状态码 = %d: %s", rec.Code, rec.Body.String())
	}
	if logged := cat.Interactions(); len(logged) != 1 || logged[0].Action != "like" {
		t.Errorf("交互未落库: %+v", logged)
	}

	body, _ = json.Marshal(swipeRequest{BottleID: 1, Action: "superlike"})
	rec = doRequest(t, srv, http.MethodPost, "/swipes", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("非法动作状态码 = %d, 期望 400", rec.Code)
	}

	// 目录 ID 从 0 开始，0 是合法瓶子
	body, _ = json.Marshal(swipeRequest{BottleID: 0, Action: "pass"})
	rec = doRequest(t, srv, http.MethodPost, "/swipes", body)
	if rec.Code != http.StatusCreated {
		t.Errorf("bottle_id=0 状态码 = %d, 期望 201", rec.Code)
	}

	body, _ = json.Marshal(swipeRequest{BottleID: -1, Action: "pass"})
	rec = doRequest(t, srv, http.MethodPost, "/swipes", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("负数 bottle_id 状态码 = %d, 期望 400", rec.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// 创建会话
	rec := doRequest(t, srv, http.MethodPost, "/sessions/", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("创建会话状态码 = %d: %s", rec.Code, rec.Body.String())
	}
	var created sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.SessionID == "" || created.Current == nil {
		t.Fatalf("会话响应 = %+v", created)
	}
	if created.Mode != string(session.ModeRandom) {
		t.Errorf("初始模式 = %s, 期望 random", created.Mode)
	}

	// Like 进入候选模式
	rec = doRequest(t, srv, http.MethodPost, "/sessions/"+created.SessionID+"/like", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Like 状态码 = %d: %s", rec.Code, rec.Body.String())
	}
	var liked sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &liked); err != nil {
		t.Fatal(err)
	}
	if liked.Current == nil || liked.Current.OriginalIndex == created.Current.OriginalIndex {
		t.Error("Like 后应展示新物品")
	}

	// Pass
	rec = doRequest(t, srv, http.MethodPost, "/sessions/"+created.SessionID+"/pass", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Pass 状态码 = %d: %s", rec.Code, rec.Body.String())
	}

	// 查询状态
	rec = doRequest(t, srv, http.MethodGet, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态查询状态码 = %d", rec.Code)
	}

	// 结束会话
	rec = doRequest(t, srv, http.MethodDelete, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("结束会话状态码 = %d, 期望 204", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("已销毁会话状态码 = %d, 期望 404", rec.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/sessions/nope/like", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("状态码 = %d, 期望 404", rec.Code)
	}
}
