package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/config"
	"resume-insight/internal/types"
)

func TestNewStorageNothingEnabled(t *testing.T) {
	s, err := NewStorage(context.Background(), config.DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, s.MySQL)
	assert.Nil(t, s.Redis)
	assert.Nil(t, s.MinIO)
	assert.Nil(t, s.RabbitMQ)
	s.Close()

	_, err = NewStorage(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewStorageAllEnabledFail(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = "" // 地址为空立即失败

	_, err := NewStorage(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestOriginalObjectKey(t *testing.T) {
	assert.Equal(t, "originals/abc.pdf", OriginalObjectKey("abc", "My CV.PDF"))
	assert.Equal(t, "originals/abc.docx", OriginalObjectKey("abc", " resume.docx "))
	assert.Equal(t, "originals/abc", OriginalObjectKey("abc", "noext"))
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", getContentType(".PDF"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", getContentType(".docx"))
	assert.Equal(t, "application/octet-stream", getContentType(".bin"))
}

func TestDSN(t *testing.T) {
	cfg := config.DefaultConfig().MySQL
	cfg.Password = "secret"
	assert.Equal(t,
		"root:secret@tcp(localhost:3306)/resume_insight?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		DSN(&cfg))
}

// TestRedisIntegration 需要本地 Redis，设置 RESUME_INSIGHT_TEST_REDIS=host:port 时运行
func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("RESUME_INSIGHT_TEST_REDIS")
	if addr == "" {
		t.Skip("未设置 RESUME_INSIGHT_TEST_REDIS，跳过Redis集成测试")
	}
	cfg := config.DefaultConfig().Redis
	cfg.Address = addr
	r, err := NewRedisAdapter(&cfg)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.DeleteBankSnapshot(ctx))
	_, ok, err := r.GetBankSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.SetBankSnapshot(ctx, []byte(`[]`), time.Minute))
	data, ok, err := r.GetBankSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(data))

	analysis := &types.ResumeAnalysis{AnalysisID: "id-1", OverallScore: 7, Skills: []string{"Go"}}
	require.NoError(t, r.CacheAnalysis(ctx, "md5-test", analysis))
	got, ok, err := r.GetCachedAnalysis(ctx, "md5-test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.OverallScore)
	assert.Equal(t, []string{"Go"}, got.Skills)
}
