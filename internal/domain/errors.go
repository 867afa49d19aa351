package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNotFound is returned when a stored recommendation does not exist
	ErrNotFound = errors.New("recommendation not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRetailerFailure is returned when a retailer search request fails
	ErrRetailerFailure = errors.New("retailer search failed")

	// ErrCuratorFailure is returned when the LLM curator call fails or returns garbage
	ErrCuratorFailure = errors.New("curator request failed")

	// ErrNoInventory is returned when no retailer produced any product
	ErrNoInventory = errors.New("no products found for profile")
)
