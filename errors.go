package simplpool

import "errors"

// Sentinel errors returned by New and by the *Err-suffixed API. The classic
// Malloc, Realloc and Memalign keep the original nil-on-failure contract;
// their *Err siblings are a thin richer layer for callers who want to
// distinguish failure kinds without re-deriving them from nil.
var (
	ErrInvalidArgument = errors.New("simplpool: invalid argument")
	ErrSizeOverflow    = errors.New("simplpool: requested size overflows")
	ErrOutOfSpace      = errors.New("simplpool: no chunk large enough")
	ErrPoolTooSmall    = errors.New("simplpool: buffer too small for a pool header")
)
