package repl

import (
	"sort"
	"strings"

	"github.com/roelfdiedericks/azsh/internal/azure"
	"github.com/roelfdiedericks/azsh/internal/commands"
)

// mentionKinds are always offered for @-completion, before any cached
// resource mentions.
var mentionKinds = []string{"@sub", "@rg:", "@vm:", "@aks:", "@file:"}

// Completer implements readline.AutoCompleter for slash commands and
// @-mentions. Resource mentions come from the cache primed by earlier @rg
// resolutions.
type Completer struct {
	manager *commands.Manager
	cache   *azure.ResourceCache
}

func NewCompleter(manager *commands.Manager, cache *azure.ResourceCache) *Completer {
	return &Completer{manager: manager, cache: cache}
}

// Do returns completion candidates for the word under the cursor. Candidates
// are the suffixes remaining after the typed prefix, per the readline
// contract.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	before := string(line[:pos])
	start := strings.LastIndexAny(before, " \t") + 1
	word := before[start:]

	var candidates []string
	switch {
	case start == 0 && strings.HasPrefix(word, "/"):
		for _, cmd := range c.manager.List() {
			candidates = append(candidates, cmd.Name)
			candidates = append(candidates, cmd.Aliases...)
		}
	case strings.HasPrefix(word, "@"):
		candidates = append(candidates, mentionKinds...)
		if c.cache != nil {
			for _, comp := range c.cache.Completions() {
				candidates = append(candidates, comp.Mention)
			}
		}
	default:
		return nil, 0
	}
	sort.Strings(candidates)

	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) && cand != word {
			out = append(out, []rune(cand[len(word):]))
		}
	}
	return out, len([]rune(word))
}
