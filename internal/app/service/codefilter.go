package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// CodeFilter is a bloom filter over every short code the service has seen.
// It is a hint only: a negative answer lets the redirect path skip the
// Redis round-trip, but the store is always consulted before a 404 is
// returned, so codes written by other instances can never be wrongly
// rejected.
type CodeFilter struct {
	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// NewCodeFilter sizes the filter for the expected number of codes at the
// given false-positive rate.
func NewCodeFilter(expectedCodes uint, fpRate float64) *CodeFilter {
	if expectedCodes == 0 {
		expectedCodes = 1 << 20
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	return &CodeFilter{bf: bloom.NewWithEstimates(expectedCodes, fpRate)}
}

// Seed loads the filter with codes already in the store.
func (f *CodeFilter) Seed(codes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		f.bf.AddString(code)
	}
}

// Add records a freshly assigned code.
func (f *CodeFilter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf.AddString(code)
}

// MayContain reports whether the code could be known. False positives are
// possible, false negatives are not (for codes added through this filter).
func (f *CodeFilter) MayContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(code)
}
