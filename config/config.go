// minber/config/config.go
package config

const (
	AppVersion = "0.9.2"

	// Form & Content Limits
	MaxUsernameLen    = 50
	MaxDisplayNameLen = 100
	MaxContentLen     = 10000
	MaxCommentLen     = 2000
	MaxReasonLen      = 500
	MaxTags           = 10

	// Query Defaults
	DefaultListLimit = 50
	MaxListLimit     = 200

	// File Upload Limits
	MaxImageSize    = 10 * 1024 * 1024  // 10MB
	MaxVideoSize    = 100 * 1024 * 1024 // 100MB
	MaxWidth        = 8000
	MaxHeight       = 8000
	ThumbnailWidth  = 400
	ThumbnailHeight = 400

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "10s"
	DefaultRateLimitBurst  = 5
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)
