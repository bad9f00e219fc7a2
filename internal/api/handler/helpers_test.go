package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/comment_go_server/config"
	"github.com/qs3c/comment_go_server/internal/api/middleware"
	"github.com/qs3c/comment_go_server/internal/pkg/events"
	"github.com/qs3c/comment_go_server/internal/pkg/oss"
	"github.com/qs3c/comment_go_server/internal/pkg/response"
	"github.com/qs3c/comment_go_server/internal/repository"
	"github.com/qs3c/comment_go_server/internal/service"
	"github.com/qs3c/comment_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testContext struct {
	DB          *gorm.DB
	Comments    *CommentHandler
	Attachments *AttachmentHandler
	Users       *UserHandler
}

func setupHandlers(t *testing.T) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	client, _ := testutil.SetupTestRedis(t)
	logger, _ := test.NewNullLogger()

	cfg := &config.Config{}
	cfg.Comment.MaxContentLength = 2000
	cfg.Comment.MaxAttachments = 9
	cfg.Attachment.ReserveMinutes = 60

	attachments := service.NewAttachmentService(
		repository.NewAttachmentRepository(db),
		oss.StaticURLs{BaseURL: "https://cdn.example.com"},
		cfg,
		logger,
	)
	users := service.NewUserService(repository.NewUserRepository(db))
	bus := events.NewBus(logger)
	cache := service.NewListCache(client, 30*time.Second)
	service.RegisterSubscribers(bus, cache, nil)

	comments := service.NewCommentService(service.CommentDeps{
		CommentRepo: repository.NewCommentRepository(db),
		ChannelRepo: repository.NewChannelRepository(db),
		Attachments: attachments,
		Views:       service.NewViewResolver(users, attachments),
		Bus:         bus,
		Cache:       cache,
		Logger:      logger,
		Config:      cfg,
	})

	return &testContext{
		DB:          db,
		Comments:    NewCommentHandler(comments),
		Attachments: NewAttachmentHandler(attachments),
		Users:       NewUserHandler(users),
	}
}

func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data is not an object: %#v", resp.Data)
	return data
}
