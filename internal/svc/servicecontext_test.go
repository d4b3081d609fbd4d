package svc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/cell/internal/agent/ai/aitest"
	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/types"
)

func testCalls() []types.APICall {
	return []types.APICall{{Endpoint: "/api/users/list", Method: "GET", Timestamp: "2024-01-01T10:00:00Z"}}
}

func TestNewServiceContextDelegates(t *testing.T) {
	p := aitest.New("fake", "/api/users/get")
	svcCtx, err := NewServiceContext(config.Default(), p)
	require.NoError(t, err)

	assert.Equal(t, "fake", svcCtx.ProviderID())
	assert.Equal(t, "dev", svcCtx.Version)

	got := svcCtx.PredictNext(context.Background(), testCalls())
	require.NotNil(t, got)
	assert.Equal(t, "/api/users/get", *got)
	assert.Equal(t, 50, p.LastRequest().MaxTokens)

	p.SetText("You listed users.")
	reply := svcCtx.Reply(context.Background(), []types.ChatMessage{{Role: types.RoleUser, Content: "what did I do?"}}, testCalls())
	assert.Equal(t, "You listed users.", reply)
	assert.Equal(t, 500, p.LastRequest().MaxTokens)
}

func TestReloadSwapsProvider(t *testing.T) {
	first := aitest.New("first", "/api/a")
	svcCtx, err := NewServiceContext(config.Default(), first)
	require.NoError(t, err)
	s := svcCtx.Sessions.Create()

	c := config.Default()
	c.Prediction.AllowedEndpoints = []string{"/api/b"}
	second := aitest.New("second", "/api/b")
	require.NoError(t, svcCtx.Reload(c, second))

	assert.Equal(t, "second", svcCtx.ProviderID())
	assert.Equal(t, []string{"/api/b"}, svcCtx.Config().Prediction.AllowedEndpoints)

	// existing sessions resolve through the new services
	got := s.Capture(context.Background(), "/api/start", "GET", nil)
	require.NotNil(t, got)
	assert.Equal(t, "/api/b", *got)
	assert.Empty(t, first.Requests())
}

func TestReloadRejectsBadTimezone(t *testing.T) {
	svcCtx, err := NewServiceContext(config.Default(), aitest.New("fake", ""))
	require.NoError(t, err)

	c := config.Default()
	c.Timezone = "Nowhere/Special"
	assert.Error(t, svcCtx.Reload(c, aitest.New("other", "")))
	assert.Equal(t, "fake", svcCtx.ProviderID())
}

func TestSchemaFileRestrictsPredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"paths":{"/api/users/get":{"get":{"summary":"Get user"}}}}`), 0600))

	c := config.Default()
	c.Prediction.SchemaFile = path
	p := aitest.New("fake", "/api/users/get")
	svcCtx, err := NewServiceContext(c, p)
	require.NoError(t, err)

	got := svcCtx.PredictNext(context.Background(), testCalls())
	require.NotNil(t, got)
	assert.Equal(t, "/api/users/get", *got)

	p.SetText("/api/users/delete")
	assert.Nil(t, svcCtx.PredictNext(context.Background(), testCalls()), "not in schema")

	c.Prediction.SchemaFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = NewServiceContext(c, p)
	assert.Error(t, err)
}
