package progress

import "errors"

var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrMalformedRow    = errors.New("malformed row")
	ErrEmptyTable      = errors.New("table has no header")
	ErrUnsupportedURI  = errors.New("unsupported data source")
	ErrNotLoaded       = errors.New("dataset not loaded")
	ErrSourceFetch     = errors.New("data source fetch failed")
	ErrSourceNotConfig = errors.New("data source not configured")
)
