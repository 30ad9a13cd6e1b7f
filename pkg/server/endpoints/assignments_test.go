package endpoints

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/middleware"
	"github.com/complyhub/complyd/pkg/tenant"
)

func workflowServer(t *testing.T) (*server.Server, sqlmock.Sqlmock) {
	t.Helper()
	partition, mock := mockGorm(t)
	s := newTestServer(t, acmeRouter(t, partition))
	RegisterWorkflowEndpoints(s)
	return s, mock
}

func workflowRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := tenant.NewContext(req.Context(), "acme")
	if userID != "" {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func assignmentColumns() []string {
	return []string{
		"id", "control_node_id", "assigned_to_user_id", "assigned_by_user_id",
		"status", "due_date", "created_at", "updated_at",
	}
}

func responseColumns() []string {
	return []string{
		"id", "assignment_id", "submitted_by_user_id", "response_text",
		"status", "approved_by_user_id", "submitted_at", "decided_at",
		"created_at", "updated_at",
	}
}

func TestListAssignmentsScopedToOwner(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "control_assignments" WHERE assigned_to_user_id = $1 ORDER BY created_at`)).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows(assignmentColumns()).
			AddRow("asg-1", "node-1", "emp-1", "admin-1", model.AssignmentOpen, nil, time.Now(), time.Now()))

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("GET", "/t/acme/assignments", "emp-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"asg-1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssignmentsElevatedSeesAll(t *testing.T) {
	s, mock := workflowServer(t)

	// view_responses lifts the owner filter.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "control_assignments" ORDER BY created_at`)).
		WillReturnRows(sqlmock.NewRows(assignmentColumns()).
			AddRow("asg-1", "node-1", "emp-1", "admin-1", model.AssignmentOpen, nil, time.Now(), time.Now()).
			AddRow("asg-2", "node-2", "emp-2", "admin-1", model.AssignmentOpen, nil, time.Now(), time.Now()))

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("GET", "/t/acme/assignments", "admin-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "asg-2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssignmentsInactiveMember(t *testing.T) {
	s, _ := workflowServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("GET", "/t/acme/assignments", "former-1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotAMember")
}

func TestListAssignmentsNoTenantContext(t *testing.T) {
	s, _ := workflowServer(t)

	req := httptest.NewRequest("GET", "/t/acme/assignments", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "emp-1"))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NoTenantContext")
}

func expectResponseRow(mock sqlmock.Sqlmock, id, assignmentID, submittedBy, status string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "assessment_responses" WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(responseColumns()).
			AddRow(id, assignmentID, submittedBy, "we encrypt at rest", status, "", nil, nil, time.Now(), time.Now()))
}

func TestSubmitResponse(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "", model.ResponseDraft)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "control_assignments" WHERE id = $1`)).
		WithArgs("asg-1").
		WillReturnRows(sqlmock.NewRows(assignmentColumns()).
			AddRow("asg-1", "node-1", "emp-1", "admin-1", model.AssignmentOpen, nil, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "assessment_responses" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/submit", "emp-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"SUBMITTED"`)
	assert.Contains(t, rec.Body.String(), `"submitted_by_user_id":"emp-1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitResponseWrongState(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "emp-1", model.ResponseSubmitted)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/submit", "emp-1"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidResponseState")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitResponseNotAssignee(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "", model.ResponseDraft)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "control_assignments" WHERE id = $1`)).
		WithArgs("asg-1").
		WillReturnRows(sqlmock.NewRows(assignmentColumns()).
			AddRow("asg-1", "node-1", "emp-2", "admin-1", model.AssignmentOpen, nil, time.Now(), time.Now()))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/submit", "emp-1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotAssignmentOwner")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitResponseRequiresCapability(t *testing.T) {
	s, _ := workflowServer(t)

	// admin-1 holds approve but not submit.
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/submit", "admin-1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CapabilityMissing")
}

func TestApproveResponse(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "emp-1", model.ResponseSubmitted)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "assessment_responses" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/approve", "admin-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"APPROVED"`)
	assert.Contains(t, rec.Body.String(), `"approved_by_user_id":"admin-1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveResponseSeparationOfDuties(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "admin-1", model.ResponseSubmitted)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/approve", "admin-1"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SeparationOfDuties")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveResponseWrongState(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "emp-1", model.ResponseDraft)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/approve", "admin-1"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidResponseState")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveResponseRequiresCapability(t *testing.T) {
	s, _ := workflowServer(t)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/approve", "emp-1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CapabilityMissing")
}

func TestRejectResponse(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	expectResponseRow(mock, "resp-1", "asg-1", "emp-1", model.ResponseSubmitted)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "assessment_responses" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/resp-1/reject", "admin-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"REJECTED"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitResponseMissing(t *testing.T) {
	s, mock := workflowServer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "assessment_responses" WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(responseColumns()))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, workflowRequest("POST", "/t/acme/responses/ghost/submit", "emp-1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UnknownResponse")
	require.NoError(t, mock.ExpectationsWereMet())
}
