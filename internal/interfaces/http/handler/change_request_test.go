package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	crapp "github.com/budget/backend/internal/application/changerequest"
	"github.com/budget/backend/internal/domain/budget"
	"github.com/budget/backend/internal/domain/changerequest"
	"github.com/budget/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changeRequestTestRouter(scope *stubScope, actor uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := crapp.NewReviewService(scope, scope.repos.crs)
	h := NewChangeRequestHandler(svc)

	r := gin.New()
	r.Use(actAs(actor))
	group := r.Group("/change-requests")
	group.GET("", h.List)
	group.GET("/:id", h.GetByID)
	group.PATCH("", h.Review)
	return r
}

// seedReviewableRequest stores an IN_REVIEW amount request plus the division
// whose director owns its review.
func seedReviewableRequest(t *testing.T, scope *stubScope) (*changerequest.ChangeRequest, uuid.UUID) {
	t.Helper()

	director := uuid.New()
	division := &budget.Division{
		BaseEntity:         shared.NewBaseEntity(),
		Name:               "Budget Division",
		Abbreviation:       "BD",
		DivisionDirectorID: &director,
	}
	scope.repos.divisions.byID[division.ID] = division

	cr, err := changerequest.NewBudgetLineItemChangeRequest(
		uuid.New(), uuid.New(),
		budget.FieldAmount, decimal.NewFromInt(500), decimal.NewFromInt(100),
		"", division.ID, uuid.New(),
	)
	require.NoError(t, err)
	require.NoError(t, scope.repos.crs.Save(context.Background(), cr))
	return cr, director
}

func TestReviewAddressedByPayload(t *testing.T) {
	scope := newStubScope()
	cr, director := seedReviewableRequest(t, scope)
	r := changeRequestTestRouter(scope, director)

	body := fmt.Sprintf(`{"change_request_id": %q, "action": "REJECT", "reviewer_notes": "not this cycle"}`, cr.ID)
	req := httptest.NewRequest(http.MethodPatch, "/change-requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data crapp.ChangeRequestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, cr.ID.String(), resp.Data.ID)
	assert.Equal(t, changerequest.StatusRejected.String(), resp.Data.Status)
	assert.Equal(t, changerequest.StatusRejected, cr.Status)
}

func TestReviewRequiresIDInPayload(t *testing.T) {
	scope := newStubScope()
	_, director := seedReviewableRequest(t, scope)
	r := changeRequestTestRouter(scope, director)

	req := httptest.NewRequest(http.MethodPatch, "/change-requests", strings.NewReader(`{"action": "REJECT"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewUnknownRequestNotFound(t *testing.T) {
	scope := newStubScope()
	r := changeRequestTestRouter(scope, uuid.New())

	body := fmt.Sprintf(`{"change_request_id": %q, "action": "APPROVE"}`, uuid.New())
	req := httptest.NewRequest(http.MethodPatch, "/change-requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFiltersByRequestor(t *testing.T) {
	scope := newStubScope()
	r := changeRequestTestRouter(scope, uuid.New())

	requestor := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/change-requests?user_id="+requestor.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, scope.repos.crs.lastFilter.CreatedBy)
	assert.Equal(t, requestor, *scope.repos.crs.lastFilter.CreatedBy)
}
