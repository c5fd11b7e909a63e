package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	obscontext "github.com/voluntaria/platform/internal/observability/context"
)

type fakeApplicationService struct {
	lastReq applicationdomain.TransitionRequest
	resp    applicationdomain.TransitionResponse
	err     error
}

func (f *fakeApplicationService) Transition(ctx context.Context, req applicationdomain.TransitionRequest) (applicationdomain.TransitionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return applicationdomain.TransitionResponse{}, f.err
	}
	return f.resp, nil
}

func newTransitionRouter(svc applicationdomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{applicationSvc: svc}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor := c.GetHeader("X-Actor-Id"); actor != "" {
			c.Request = c.Request.WithContext(obscontext.WithActorID(c.Request.Context(), actor))
		}
		c.Next()
	})
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/applications/transition", srv.TransitionApplication)
	return router
}

func postTransition(t *testing.T, router *gin.Engine, body string, actorHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/applications/transition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actorHeader != "" {
		req.Header.Set("X-Actor-Id", actorHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestTransitionHandlerSuccess(t *testing.T) {
	svc := &fakeApplicationService{
		resp: applicationdomain.TransitionResponse{
			Application: applicationdomain.Application{
				ID:     snowflake.ID(42),
				Status: applicationdomain.StatusApproved,
			},
			Notification: applicationdomain.NotificationOutcome{Status: "sent"},
		},
	}
	router := newTransitionRouter(svc)

	resp := postTransition(t, router,
		`{"action":"approve","applicationId":"42","actorId":"7"}`, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			NotificationStatus string  `json:"notificationStatus"`
			NotificationError  *string `json:"notificationError"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "sent", body.Data.NotificationStatus)
	assert.Nil(t, body.Data.NotificationError)

	assert.Equal(t, applicationdomain.ActionApprove, svc.lastReq.Action)
	assert.Equal(t, "42", svc.lastReq.ApplicationID)
	assert.Equal(t, "7", svc.lastReq.ActorID)
}

func TestTransitionHandlerActorHeaderWins(t *testing.T) {
	svc := &fakeApplicationService{}
	router := newTransitionRouter(svc)

	resp := postTransition(t, router,
		`{"action":"cancel","applicationId":"42","actorId":"7"}`, "99")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "99", svc.lastReq.ActorID)
}

func TestTransitionHandlerRejectsUnknownAction(t *testing.T) {
	svc := &fakeApplicationService{}
	router := newTransitionRouter(svc)

	resp := postTransition(t, router,
		`{"action":"promote","applicationId":"42","actorId":"7"}`, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "promote")
}

func TestTransitionHandlerRejectsMissingFields(t *testing.T) {
	svc := &fakeApplicationService{}
	router := newTransitionRouter(svc)

	resp := postTransition(t, router, `{"action":"cancel"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTransitionHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", applicationdomain.ErrNotFound, http.StatusNotFound},
		{"forbidden", applicationdomain.ErrForbidden, http.StatusForbidden},
		{"not cancelled", applicationdomain.ErrNotCancelled, http.StatusUnprocessableEntity},
		{"conflict", applicationdomain.ErrConflict, http.StatusConflict},
		{"persistence", applicationdomain.ErrPersistence, http.StatusServiceUnavailable},
		{"invalid actor", applicationdomain.ErrInvalidActor, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTransitionRouter(&fakeApplicationService{err: tc.err})

			resp := postTransition(t, router,
				`{"action":"approve","applicationId":"42","actorId":"7"}`, "")
			assert.Equal(t, tc.status, resp.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestTransitionHandlerPassesAttachment(t *testing.T) {
	svc := &fakeApplicationService{}
	router := newTransitionRouter(svc)

	resp := postTransition(t, router,
		`{"action":"reapply","applicationId":"42","actorId":"7","message":"de novo","attachmentPath":"/uploads/cv.pdf","attachmentName":"cv.pdf"}`, "")
	require.Equal(t, http.StatusOK, resp.Code)

	require.NotNil(t, svc.lastReq.Attachment)
	require.NotNil(t, svc.lastReq.Attachment.Path)
	assert.Equal(t, "/uploads/cv.pdf", *svc.lastReq.Attachment.Path)
	assert.Equal(t, "de novo", svc.lastReq.Message)
}
