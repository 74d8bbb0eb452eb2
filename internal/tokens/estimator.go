// Package tokens provides token estimation utilities using tiktoken.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/roelfdiedericks/azsh/internal/logging"
)

// DefaultEncoding is cl100k_base, a reasonable approximation for Claude models
const DefaultEncoding = "cl100k_base"

// Estimator counts tokens with tiktoken, falling back to a chars/4 heuristic
// when the encoding is unavailable (e.g. offline first run).
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global token estimator (singleton)
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			L_warn("tokens: failed to load encoding, using char estimate", "error", err)
			globalEstimator = &Estimator{}
			return
		}
		globalEstimator = &Estimator{encoding: enc}
	})
	return globalEstimator
}

// Count returns the token count for a string.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return len(text) / 4
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.encoding.Encode(text, nil, nil))
}

// SafetyMargin compensates for cl100k_base undercounting on non-OpenAI models.
const SafetyMargin = 1.2

// CapMaxTokens returns a max_tokens value that fits within the context window
// given the estimated input size. Returns the requested max unchanged when it
// already fits.
func CapMaxTokens(requestedMax, contextWindow, estimatedInput int) int {
	if contextWindow <= 0 {
		return requestedMax
	}

	safeInput := int(float64(estimatedInput) * SafetyMargin)
	available := contextWindow - safeInput - 100
	if available < 100 {
		available = 100
	}

	if requestedMax > 0 && requestedMax < available {
		return requestedMax
	}
	return available
}
