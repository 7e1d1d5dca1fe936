package apperrors

import "errors"

// Lookup errors indicate that something to price or match could not be found.
var (
	// ErrPriceNotFound indicates that a feed returned no usable price for a symbol.
	ErrPriceNotFound = errors.New("price not found")

	// ErrFundNotMatched indicates that a fund name matched no catalog entry above the threshold.
	ErrFundNotMatched = errors.New("fund name did not match any catalog entry")

	// ErrCacheEntryNotFound indicates that the cache holds no entry for a key.
	ErrCacheEntryNotFound = errors.New("cache entry not found")
)

// Validation errors indicate malformed requests or uploads.
var (
	// ErrUnsupportedBroker indicates an upload for a broker format with no parser.
	ErrUnsupportedBroker = errors.New("unsupported broker format")

	// ErrInvalidCSVHeaders indicates that required columns are missing from an upload.
	ErrInvalidCSVHeaders = errors.New("invalid CSV headers")

	// ErrMissingFile indicates a request without any uploaded transaction file.
	ErrMissingFile = errors.New("no transaction file uploaded")

	// ErrInvalidCurrency indicates a currency parameter that is not a 3-letter code.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrInvalidClass indicates an unknown instrument class parameter.
	ErrInvalidClass = errors.New("invalid instrument class")

	ErrMissingKey  = errors.New("at least one key is required")
	ErrMissingName = errors.New("name parameter is required")
)

// Operation failure errors represent upstream or storage failures.
var (
	ErrFailedToFetchPrice   = errors.New("failed to fetch price")
	ErrFailedToLoadCatalog  = errors.New("failed to load fund catalog")
	ErrFailedToParseUpload  = errors.New("failed to parse upload")
	ErrFailedToReadCache    = errors.New("failed to read price cache")
	ErrFailedToWriteCache   = errors.New("failed to write price cache")
	ErrFailedToResolvePrice = errors.New("failed to resolve prices")
)
