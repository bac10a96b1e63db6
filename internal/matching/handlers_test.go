package matching

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
	"github.com/imadgeboyega/projectmatch-backend/internal/common/utils"
)

const testSecret = "test-secret-key-for-handlers"

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T, repo *fakeRepo) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(newTestService(repo, nil)), auth.NewMiddleware(testSecret))
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, userID int64, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := utils.NewAccessToken(userID, "user@example.edu", testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, newFakeRepo())

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/matching/matches", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matching/matches", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSwipeEndpoint(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, profileWith([]string{"go"}, []string{"ai"}))
	repo.addUser(2, profileWith([]string{"go"}, []string{"ai"}))
	router := newTestRouter(t, repo)

	t.Run("invalid action", func(t *testing.T) {
		rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 1,
			map[string]interface{}{"swiped_id": 2, "action": "maybe"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, resp.Error, "Action")
	})

	t.Run("self swipe", func(t *testing.T) {
		rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 1,
			SwipeDTO{SwipedID: 1, Action: ActionLike})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, ErrCannotSwipeSelf.Error(), resp.Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 1,
			SwipeDTO{SwipedID: 77, Action: ActionLike})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mutual like", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 1,
			SwipeDTO{SwipedID: 2, Action: ActionLike})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec, resp := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 2,
			SwipeDTO{SwipedID: 1, Action: ActionLike})
		require.Equal(t, http.StatusCreated, rec.Code)

		var result SwipeResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.True(t, result.Matched)
		require.NotNil(t, result.Match)
		assert.Equal(t, 100.0, result.Match.CompatibilityScore)
	})

	t.Run("duplicate", func(t *testing.T) {
		rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/matching/swipes", 1,
			SwipeDTO{SwipedID: 2, Action: ActionPass})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestUndoSwipeEndpoint(t *testing.T) {
	router := newTestRouter(t, newFakeRepo())

	rec, resp := doRequest(t, router, http.MethodDelete, "/api/v1/matching/swipes/5", 1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrSwipeNotFound.Error(), resp.Error)
}

func TestDiscoverEndpoint(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, profileWith([]string{"go"}, []string{"ai"}))
	candidate := profileWith([]string{"go"}, []string{"ai"})
	candidate.Department = strPtr("physics")
	repo.addUser(2, candidate)
	repo.candidates = []*UserProfile{candidate}
	router := newTestRouter(t, repo)

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/matching/discover?limit=0", 1, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/matching/discover?department=physics&skills=go,%20", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users   []*FeedEntry   `json:"users"`
		Filters DiscoverParams `json:"filters_applied"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	require.Len(t, body.Users, 1)
	assert.Equal(t, int64(2), body.Users[0].UserID)
	assert.Equal(t, []string{"go"}, body.Filters.Skills)
}

func TestMatchEndpoints(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, profileWith([]string{"go"}, []string{"ai"}))
	repo.addUser(2, profileWith([]string{"go"}, []string{"ai"}))
	repo.matches[3] = &Match{ID: 3, User1ID: 1, User2ID: 2, CompatibilityScore: 64.5}
	router := newTestRouter(t, repo)

	rec, resp := doRequest(t, router, http.MethodGet, "/api/v1/matching/matches/3/compatibility", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report CompatibilityReport
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 64.5, report.CompatibilityScore)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/matching/matches/3/compatibility", 9, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doRequest(t, router, http.MethodGet, "/api/v1/matching/matches/stats", 1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/matching/matches/3/unmatch", 2, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/matching/matches/3/unmatch", 2, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockEndpoints(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, nil)
	repo.addUser(2, nil)
	router := newTestRouter(t, repo)

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/matching/blocks/2", 1, BlockUserDTO{Reason: "spam"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/api/v1/matching/blocks/2", 1, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/matching/blocks/2", 1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest(t, router, http.MethodDelete, "/api/v1/matching/blocks/2", 1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
