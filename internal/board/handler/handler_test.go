package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pipeline_board_backend/internal/board/domain"
	"pipeline_board_backend/internal/board/engine"
	"pipeline_board_backend/internal/board/repository"
	"pipeline_board_backend/internal/board/transport"
	"pipeline_board_backend/internal/events"
	"pipeline_board_backend/platform/httpkit"
	"pipeline_board_backend/platform/logger"
	"pipeline_board_backend/platform/retry"
	"pipeline_board_backend/platform/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type stubRemote struct {
	board     func() *domain.Board
	updateErr error
}

func (s *stubRemote) FetchBoardSnapshot(context.Context, uuid.UUID) (*domain.Board, error) {
	return s.board(), nil
}

func (s *stubRemote) UpdateDealStage(_ context.Context, _, dealID, stageID uuid.UUID) (domain.Deal, error) {
	if s.updateErr != nil {
		return domain.Deal{}, s.updateErr
	}
	return domain.Deal{ID: dealID, StageID: stageID}, nil
}

type testEnv struct {
	router   *gin.Engine
	orgID    uuid.UUID
	triage   domain.Stage
	proposal domain.Stage
	won      domain.Stage
	deal     domain.Deal
	remote   *stubRemote
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	weight10, weight50, weight100 := 10, 50, 100
	env := &testEnv{
		orgID:    uuid.New(),
		triage:   domain.Stage{ID: uuid.New(), Label: "Triage", Rank: 1, Kind: domain.StageKindOpen, Weight: &weight10},
		proposal: domain.Stage{ID: uuid.New(), Label: "Proposal", Rank: 2, Kind: domain.StageKindOpen, Weight: &weight50},
		won:      domain.Stage{ID: uuid.New(), Label: "Won", Rank: 3, Kind: domain.StageKindWon, Weight: &weight100},
	}
	env.deal = domain.Deal{
		ID:          uuid.New(),
		StageID:     env.triage.ID,
		Title:       "New roof",
		Status:      domain.DealStatusOpen,
		ValueCents:  100_000,
		Probability: 10,
	}
	env.remote = &stubRemote{
		board: func() *domain.Board {
			catalog := domain.NewCatalog([]domain.Stage{env.triage, env.proposal, env.won})
			return domain.NewBoard(env.orgID, catalog, []domain.Deal{env.deal})
		},
	}

	env.mr = miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	undo := engine.NewUndoManager(repository.NewRedisUndoStore(client), 5*time.Second, bus, log)
	registry := engine.NewRegistry(env.remote, retry.New(2, time.Millisecond), undo, nil, bus, log, nil)

	h := New(registry, validator.New(), log)
	router := gin.New()
	group := router.Group("/api/v1/board", httpkit.OrganizationRequired())
	h.RegisterRoutes(group)
	env.router = router

	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpkit.OrgIDHeader, env.orgID.String())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestGetBoard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/board", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(resp.Columns))
	}
	if resp.Columns[0].Count != 1 || resp.Columns[0].TotalValueCents != 100_000 {
		t.Errorf("triage column: %+v", resp.Columns[0])
	}
	if resp.Busy {
		t.Error("idle board reported busy")
	}
}

func TestBoardRequiresOrganizationHeader(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/board", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing header: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/board", nil)
	req.Header.Set(httpkit.OrgIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid header: status = %d, want 400", rec.Code)
	}
}

func TestMoveDeal(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.MoveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Moved {
		t.Error("Moved = false")
	}
	if !resp.CanUndo {
		t.Error("CanUndo = false after a committed move")
	}
}

func TestMoveSucceedsWhenUndoStoreIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp transport.MoveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Moved {
		t.Error("Moved = false")
	}
	// The undo hint degrades to false; the commit itself is unaffected.
	if resp.CanUndo {
		t.Error("CanUndo = true with the store unreachable")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/board", nil)
	var board transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if board.Columns[1].Count != 1 {
		t.Error("deal not in target column after commit")
	}
}

func TestMoveStaleDealReturnsNoContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        uuid.New(),
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestMoveOntoTerminalStageIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.won.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp httpkit.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	details, ok := resp.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("details type %T", resp.Details)
	}
	if details["suggestedAction"] != string(domain.SuggestUseWinDialog) {
		t.Errorf("suggestedAction = %v", details["suggestedAction"])
	}
}

func TestConfirmCloseEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/close", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.won.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/board", nil)
	var resp transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	wonColumn := resp.Columns[2]
	if wonColumn.Count != 1 {
		t.Error("deal not in won column after confirmed close")
	}
	if wonColumn.Deals[0].Status != string(domain.DealStatusWon) {
		t.Errorf("status = %q, want won", wonColumn.Deals[0].Status)
	}
}

func TestMoveValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", map[string]string{
		"dealId": env.deal.ID.String(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing target: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/board/moves", bytes.NewReader([]byte("{not json")))
	req.Header.Set(httpkit.OrgIDHeader, env.orgID.String())
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", recorder.Code)
	}
}

func TestMoveFailureRefreshesBoard(t *testing.T) {
	env := newTestEnv(t)
	env.remote.updateErr = errors.New("remote unavailable")

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/board", nil)
	var resp transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Columns[0].Count != 1 {
		t.Error("deal not restored to source column after failed move")
	}
}

func TestUndoEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/board/undo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/board", nil)
	var resp transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Columns[0].Count != 1 {
		t.Error("deal not back in source column after undo")
	}

	// No record remains.
	rec = env.do(t, http.MethodPost, "/api/v1/board/undo", nil)
	if rec.Code != http.StatusGone {
		t.Errorf("second undo: status = %d, want 410", rec.Code)
	}
}

func TestUndoAfterWindowExpires(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/board/moves", transport.MoveRequest{
		DealID:        env.deal.ID,
		TargetStageID: env.proposal.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: status = %d", rec.Code)
	}

	env.mr.FastForward(6 * time.Second)

	rec = env.do(t, http.MethodPost, "/api/v1/board/undo", nil)
	if rec.Code != http.StatusGone {
		t.Errorf("status = %d, want 410", rec.Code)
	}
}

func TestInFlightEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/board/in-flight", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp transport.InFlightResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Busy || len(resp.DealIDs) != 0 {
		t.Errorf("idle board: %+v", resp)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Load the initial snapshot, then change what the remote serves.
	if rec := env.do(t, http.MethodGet, "/api/v1/board", nil); rec.Code != http.StatusOK {
		t.Fatalf("board: status = %d", rec.Code)
	}

	movedDeal := env.deal
	movedDeal.StageID = env.proposal.ID
	movedDeal.Probability = 50
	env.remote.board = func() *domain.Board {
		catalog := domain.NewCatalog([]domain.Stage{env.triage, env.proposal, env.won})
		return domain.NewBoard(env.orgID, catalog, []domain.Deal{movedDeal})
	}

	rec := env.do(t, http.MethodPost, "/api/v1/board/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d", rec.Code)
	}

	var resp transport.BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Columns[1].Count != 1 {
		t.Errorf("refreshed board not served: %+v", resp.Columns)
	}
}
