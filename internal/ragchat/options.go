// Package ragchat provides the RAG Chat service application.
package ragchat

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	logopts "github.com/kart-io/rag-chat/pkg/options/logger"
	"github.com/kart-io/rag-chat/pkg/tracing"
)

// Options contains all rag-chat service options.
//
// 服务端配置只覆盖运行参数（监听地址、超时、top-k、缓存等）。
// 任何上游凭证都不出现在配置中：凭证是请求字段，随请求来、随请求走。
type Options struct {
	// Server contains HTTP server configuration.
	Server *ServerOptions `json:"server" mapstructure:"server"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// RAG contains pipeline configuration.
	RAG *RAGOptions `json:"rag" mapstructure:"rag"`

	// Cache contains query cache configuration.
	Cache *CacheOptions `json:"cache" mapstructure:"cache"`

	// CORS contains the allowed browser origins.
	CORS *CORSOptions `json:"cors" mapstructure:"cors"`

	// Tracing contains OpenTelemetry configuration.
	Tracing *tracing.Options `json:"tracing" mapstructure:"tracing"`
}

// ServerOptions contains HTTP server configuration.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode is the gin mode (debug, release, test).
	Mode string `json:"mode" mapstructure:"mode"`

	// RequestTimeout bounds a single request including all upstream calls.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`

	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`

	// ShutdownTimeout is the graceful shutdown drain window.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates default server options.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Addr: ":8000",
		Mode: "release",
		// 问答与摄取都要等待多次上游往返，请求超时要容纳整条流水线。
		RequestTimeout:  120 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    150 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// RAGOptions contains pipeline configuration.
type RAGOptions struct {
	// TopK is the number of results from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// EmbedWorkers is the number of concurrent embedding workers during ingest.
	EmbedWorkers int `json:"embed-workers" mapstructure:"embed-workers"`

	// UpstreamTimeout bounds a single upstream call (LLM, vector store, source DB).
	UpstreamTimeout time.Duration `json:"upstream-timeout" mapstructure:"upstream-timeout"`
}

// NewRAGOptions creates default pipeline options.
func NewRAGOptions() *RAGOptions {
	return &RAGOptions{
		TopK:            5,
		EmbedWorkers:    4,
		UpstreamTimeout: 30 * time.Second,
	}
}

// CacheOptions contains query cache configuration.
type CacheOptions struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Addr Redis 地址（host:port）。
	Addr string `json:"addr" mapstructure:"addr"`

	// Password Redis 密码。
	Password string `json:"-" mapstructure:"password"`

	// DB Redis 数据库编号。
	DB int `json:"db" mapstructure:"db"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewCacheOptions creates default cache options. The cache stays off unless
// explicitly enabled.
func NewCacheOptions() *CacheOptions {
	return &CacheOptions{
		Enabled:   false,
		Addr:      "localhost:6379",
		TTL:       5 * time.Minute,
		KeyPrefix: "ragchat:query:",
	}
}

// CORSOptions contains the browser origin allowlist.
type CORSOptions struct {
	// AllowOrigins is the explicit list of allowed origins.
	AllowOrigins []string `json:"allow-origins" mapstructure:"allow-origins"`
}

// NewCORSOptions creates CORS options for the local demo frontend.
func NewCORSOptions() *CORSOptions {
	return &CORSOptions{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
	}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Server:  NewServerOptions(),
		Log:     logopts.NewOptions(),
		RAG:     NewRAGOptions(),
		Cache:   NewCacheOptions(),
		CORS:    NewCORSOptions(),
		Tracing: tracing.NewOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Tracing.AddFlags(fs)
	o.addServerFlags(fs)
	o.addRAGFlags(fs)
	o.addCacheFlags(fs)
	o.addCORSFlags(fs)
}

func (o *Options) addServerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "HTTP listen address")
	fs.StringVar(&o.Server.Mode, "server.mode", o.Server.Mode, "Gin mode (debug, release, test)")
	fs.DurationVar(&o.Server.RequestTimeout, "server.request-timeout", o.Server.RequestTimeout, "Per-request deadline including upstream calls")
	fs.DurationVar(&o.Server.ReadTimeout, "server.read-timeout", o.Server.ReadTimeout, "HTTP read timeout")
	fs.DurationVar(&o.Server.WriteTimeout, "server.write-timeout", o.Server.WriteTimeout, "HTTP write timeout")
	fs.DurationVar(&o.Server.IdleTimeout, "server.idle-timeout", o.Server.IdleTimeout, "HTTP keep-alive idle timeout")
	fs.DurationVar(&o.Server.ShutdownTimeout, "server.shutdown-timeout", o.Server.ShutdownTimeout, "Graceful shutdown drain window")
}

func (o *Options) addRAGFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.RAG.TopK, "rag.top-k", o.RAG.TopK, "Number of results from similarity search")
	fs.IntVar(&o.RAG.EmbedWorkers, "rag.embed-workers", o.RAG.EmbedWorkers, "Concurrent embedding workers during ingest")
	fs.DurationVar(&o.RAG.UpstreamTimeout, "rag.upstream-timeout", o.RAG.UpstreamTimeout, "Timeout for a single upstream call")
}

func (o *Options) addCacheFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Cache.Enabled, "cache.enabled", o.Cache.Enabled, "Enable the Redis query cache")
	fs.StringVar(&o.Cache.Addr, "cache.addr", o.Cache.Addr, "Redis address (host:port)")
	fs.StringVar(&o.Cache.Password, "cache.password", o.Cache.Password, "Redis password")
	fs.IntVar(&o.Cache.DB, "cache.db", o.Cache.DB, "Redis database number")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Cache TTL duration")
	fs.StringVar(&o.Cache.KeyPrefix, "cache.key-prefix", o.Cache.KeyPrefix, "Cache key prefix")
}

func (o *Options) addCORSFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&o.CORS.AllowOrigins, "cors.allow-origins", o.CORS.AllowOrigins, "Allowed browser origins")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if err := o.Tracing.Validate(); err != nil {
		return err
	}
	if o.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch o.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of debug, release, test")
	}
	if o.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request-timeout must be positive")
	}
	if o.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown-timeout must be positive")
	}
	if o.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top-k must be positive")
	}
	if o.RAG.EmbedWorkers <= 0 {
		return fmt.Errorf("rag.embed-workers must be positive")
	}
	if o.RAG.UpstreamTimeout <= 0 {
		return fmt.Errorf("rag.upstream-timeout must be positive")
	}
	if o.Cache.Enabled && o.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}
	if len(o.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("cors.allow-origins must not be empty")
	}
	return nil
}

// Complete completes the options.
func (o *Options) Complete() error {
	if err := o.Log.Complete(); err != nil {
		return err
	}
	return o.Tracing.Complete()
}
