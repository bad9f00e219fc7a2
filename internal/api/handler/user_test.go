package handler

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/comment_go_server/internal/pkg/response"
	"github.com/qs3c/comment_go_server/internal/testutil"
)

func TestUserHandler_GetProfile(t *testing.T) {
	ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB, testutil.WithUsername("public_face"))

	router := gin.New()
	router.GET("/users/:id", ctx.Users.GetProfile)

	w := performRequest(router, "GET", fmt.Sprintf("/users/%d", user.ID), nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "public_face", data["username"])
	assert.NotContains(t, data, "email")

	w = performRequest(router, "GET", "/users/99999", nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)

	w = performRequest(router, "GET", "/users/zero", nil)
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}
