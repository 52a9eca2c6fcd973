package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Post constraints
	MinTitleLength   int
	MaxTitleLength   int
	MinSummaryLength int
	MaxSummaryLength int
	MinContentBlocks int
	MaxBlockOrder    int // bounded by the zero-padded block sort key width

	// Tag constraints
	MaxTags      int
	MinTagLength int
	MaxTagLength int

	// Listing
	DefaultPageSize int
	MaxPageSize     int

	// Store transaction limits
	MaxTransactionItems int
	MaxDeleteItems      int

	// Media constraints
	MaxFileNameLength int
	MaxImageSize      int64
	MaxVideoSize      int64
	UploadURLExpiry   time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinTitleLength:   1,
		MaxTitleLength:   200,
		MinSummaryLength: 1,
		MaxSummaryLength: 500,
		MinContentBlocks: 1,
		MaxBlockOrder:    99999,

		MaxTags:      10,
		MinTagLength: 1,
		MaxTagLength: 50,

		DefaultPageSize: 10,
		MaxPageSize:     100,

		MaxTransactionItems: 100,
		MaxDeleteItems:      25,

		MaxFileNameLength: 255,
		MaxImageSize:      10 * 1024 * 1024,
		MaxVideoSize:      100 * 1024 * 1024,
		UploadURLExpiry:   15 * time.Minute,
	}
}

// Validate checks that the configuration is internally consistent
func (c *DomainConfig) Validate() error {
	if c.MaxTitleLength < c.MinTitleLength {
		return ErrInvalidConfig("MaxTitleLength must be >= MinTitleLength")
	}
	if c.MaxSummaryLength < c.MinSummaryLength {
		return ErrInvalidConfig("MaxSummaryLength must be >= MinSummaryLength")
	}
	if c.MaxTagLength < c.MinTagLength {
		return ErrInvalidConfig("MaxTagLength must be >= MinTagLength")
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		return ErrInvalidConfig("DefaultPageSize must be within [1, MaxPageSize]")
	}
	if c.MaxBlockOrder < 0 || c.MaxBlockOrder > 99999 {
		return ErrInvalidConfig("MaxBlockOrder must be within [0, 99999]")
	}
	if c.MaxDeleteItems < 1 || c.MaxTransactionItems < 1 {
		return ErrInvalidConfig("transaction limits must be positive")
	}
	return nil
}

// ErrInvalidConfig represents a configuration error
type ErrInvalidConfig string

func (e ErrInvalidConfig) Error() string {
	return "invalid domain config: " + string(e)
}
