package ragchat

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, ":8000", opts.Server.Addr)
	assert.Equal(t, "release", opts.Server.Mode)
	assert.Equal(t, 5, opts.RAG.TopK)
	assert.Equal(t, 4, opts.RAG.EmbedWorkers)
	assert.Equal(t, 30*time.Second, opts.RAG.UpstreamTimeout)
	// 缓存与追踪默认关闭，服务开箱即用且不依赖外部组件
	assert.False(t, opts.Cache.Enabled)
	assert.False(t, opts.Tracing.Enabled)
	assert.Contains(t, opts.CORS.AllowOrigins, "http://localhost:3000")

	require.NoError(t, opts.Complete())
	require.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{
			name:    "empty addr",
			mutate:  func(o *Options) { o.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "bad mode",
			mutate:  func(o *Options) { o.Server.Mode = "production" },
			wantErr: "server.mode",
		},
		{
			name:    "zero top-k",
			mutate:  func(o *Options) { o.RAG.TopK = 0 },
			wantErr: "rag.top-k",
		},
		{
			name:    "zero embed workers",
			mutate:  func(o *Options) { o.RAG.EmbedWorkers = 0 },
			wantErr: "rag.embed-workers",
		},
		{
			name:    "zero request timeout",
			mutate:  func(o *Options) { o.Server.RequestTimeout = 0 },
			wantErr: "server.request-timeout",
		},
		{
			name: "cache enabled without addr",
			mutate: func(o *Options) {
				o.Cache.Enabled = true
				o.Cache.Addr = ""
			},
			wantErr: "cache.addr",
		},
		{
			name:    "empty cors allowlist",
			mutate:  func(o *Options) { o.CORS.AllowOrigins = nil },
			wantErr: "cors.allow-origins",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := NewOptions()
			tc.mutate(opts)

			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestOptions_AddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--server.addr=:9000",
		"--rag.top-k=3",
		"--cache.enabled=true",
		"--cache.addr=redis:6379",
	}))

	assert.Equal(t, ":9000", opts.Server.Addr)
	assert.Equal(t, 3, opts.RAG.TopK)
	assert.True(t, opts.Cache.Enabled)
	assert.Equal(t, "redis:6379", opts.Cache.Addr)
	require.NoError(t, opts.Validate())
}
