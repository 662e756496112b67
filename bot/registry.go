package bot

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrDuplicateCallback = errors.New("duplicate callback keyword")

// Registry owns the set of registered commands. Writes happen during
// bot setup; resolution afterwards is read-only.
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a command and its chained sub-commands as one unit.
// The whole chain is validated before anything is appended, so a
// callback keyword collision anywhere in it leaves the registry
// unchanged.
func (r *Registry) Add(cmd *Command) error {
	chain := flatten(cmd)
	for _, c := range chain {
		if c.Keyword == "" && c.CallbackKeyword == "" {
			return fmt.Errorf("command has neither keyword nor callback keyword")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range chain {
		if c.CallbackKeyword == "" {
			continue
		}
		for _, existing := range r.commands {
			if strings.EqualFold(existing.CallbackKeyword, c.CallbackKeyword) {
				return fmt.Errorf("%w: %q already registered by command %q",
					ErrDuplicateCallback, c.CallbackKeyword, existing.Keyword)
			}
		}
		for _, prior := range chain[:i] {
			if strings.EqualFold(prior.CallbackKeyword, c.CallbackKeyword) {
				return fmt.Errorf("%w: %q appears twice in the chain of command %q",
					ErrDuplicateCallback, c.CallbackKeyword, cmd.Keyword)
			}
		}
	}
	r.commands = append(r.commands, chain...)
	return nil
}

// flatten returns the command followed by its chained sub-commands,
// depth first.
func flatten(cmd *Command) []*Command {
	out := []*Command{cmd}
	for _, chained := range cmd.Chained {
		out = append(out, flatten(chained)...)
	}
	return out
}

// Commands returns a snapshot of the registered commands.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Resolve matches an incoming event to exactly one command, or nil.
//
// Text mode matches keywords case-insensitively as substrings of the
// input (or by equality for exact-match commands). When several
// keywords match, the longest wins; equal lengths break
// lexicographically, so resolution never depends on registration
// order. Callback mode matches the callback keyword or keyword by
// case-insensitive equality.
func (r *Registry) Resolve(input string, isCallback bool) *Command {
	needle := strings.ToLower(strings.TrimSpace(input))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if isCallback {
		for _, c := range r.commands {
			if c.CallbackKeyword != "" && strings.EqualFold(c.CallbackKeyword, needle) {
				return c
			}
			if c.Keyword != "" && strings.EqualFold(c.Keyword, needle) {
				return c
			}
		}
		return nil
	}

	var best *Command
	var bestKw string
	for _, c := range r.commands {
		if c.Keyword == "" {
			continue
		}
		kw := strings.ToLower(c.Keyword)
		matched := strings.Contains(needle, kw)
		if c.ExactMatch {
			matched = needle == kw
		}
		if !matched {
			continue
		}
		if best == nil || len(kw) > len(bestKw) || (len(kw) == len(bestKw) && kw < bestKw) {
			best, bestKw = c, kw
		}
	}
	return best
}
