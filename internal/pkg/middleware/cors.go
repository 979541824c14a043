package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	// AllowOrigins is the explicit list of allowed origins.
	// A wildcard "*" is rejected together with AllowCredentials.
	AllowOrigins []string

	// AllowMethods are the methods offered in preflight responses.
	AllowMethods []string

	// AllowHeaders are the headers offered in preflight responses.
	AllowHeaders []string

	// ExposeHeaders are the headers exposed to browser scripts.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// NewCORSOptions returns CORS options for the local demo frontend.
func NewCORSOptions() *CORSOptions {
	return &CORSOptions{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			HeaderXRequestID,
		},
		ExposeHeaders:    []string{HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORS returns a CORS middleware with the demo frontend defaults.
func CORS() gin.HandlerFunc {
	return CORSWithOptions(*NewCORSOptions())
}

// CORSWithOptions returns a CORS middleware with the given options.
// Configuration errors panic at startup.
func CORSWithOptions(opts CORSOptions) gin.HandlerFunc {
	if err := validateCORSOptions(opts); err != nil {
		panic(err)
	}

	allowMethods := strings.Join(opts.AllowMethods, ", ")
	allowHeaders := strings.Join(opts.AllowHeaders, ", ")
	exposeHeaders := strings.Join(opts.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(opts.MaxAge)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowedOrigin := ""
		for _, o := range opts.AllowOrigins {
			if o == "*" || o == origin {
				allowedOrigin = o
				break
			}
		}

		if allowedOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowedOrigin)

		if opts.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if exposeHeaders != "" {
			c.Header("Access-Control-Expose-Headers", exposeHeaders)
		}

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func validateCORSOptions(opts CORSOptions) error {
	if len(opts.AllowOrigins) == 0 {
		return fmt.Errorf("CORS: AllowOrigins must be explicitly configured, empty list not allowed")
	}

	hasWildcard := false
	for _, origin := range opts.AllowOrigins {
		if origin == "*" {
			hasWildcard = true
			continue
		}
		if err := validateOriginFormat(origin); err != nil {
			return fmt.Errorf("CORS: invalid origin format '%s': %w", origin, err)
		}
	}

	// Wildcard cannot be used with credentials (RFC6454)
	if hasWildcard && opts.AllowCredentials {
		return fmt.Errorf("CORS: cannot use wildcard origin '*' with AllowCredentials=true")
	}

	return nil
}

// validateOriginFormat validates that an origin follows the scheme://host[:port] format.
func validateOriginFormat(origin string) error {
	if origin == "" {
		return fmt.Errorf("origin cannot be empty")
	}

	if !strings.Contains(origin, "://") {
		return fmt.Errorf("origin must include scheme (http:// or https://)")
	}

	schemeEnd := strings.Index(origin, "://") + 3
	if schemeEnd < len(origin) {
		remainder := origin[schemeEnd:]
		if strings.ContainsAny(remainder, "/?#") {
			return fmt.Errorf("origin should not include path, query, or fragment")
		}
	}

	return nil
}
