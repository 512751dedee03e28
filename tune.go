package paramkit

import (
	"fmt"
	"sort"
	"strings"
)

// Trial is the sampling surface a hyperparameter search backend supplies.
// Each call both draws a value and records the draw under name.
type Trial interface {
	SuggestFloat(name string, low, high float64) (float64, error)
	SuggestInt(name string, low, high int64) (int64, error)
	SuggestCategorical(name string, choices []any) (any, error)
}

// Tunable is something whose parameters a Trial can sample.
type Tunable interface {
	// Tunable returns the set of parameter names open to tuning. Names
	// should not contain ".".
	Tunable() map[string]bool

	// Suggest samples values for the names in only, registering each draw
	// with the trial under prefix plus the name.
	Suggest(trial Trial, only map[string]bool, prefix string) error
}

// TreeTunable crawls a nested mapping for Tunable values and returns the
// dotted names of every tunable parameter, formatted
// "key0.key1.....name". A "." inside a tree key or a parameter name makes
// such names ambiguous; onDot decides whether that is ignored, warned
// about, or an error. PolicyDefault warns.
func TreeTunable(tree map[string]any, onDot Policy, warn WarnFunc) (map[string]bool, error) {
	if onDot == PolicyDefault {
		onDot = PolicyWarn
	}
	entries, err := tunablesFromTree(tree, onDot, warn, "")
	if err != nil {
		return nil, err
	}
	tunable := make(map[string]bool)
	for _, entry := range entries {
		for name := range entry.tunable.Tunable() {
			if strings.Contains(name, ".") && onDot != PolicyIgnore {
				msg := fmt.Sprintf("found tunable parameter at %s with '.' in its name: %q", toMultiKey(entry.prefix), name)
				if onDot == PolicyRaise {
					return nil, fmt.Errorf("%s", msg)
				}
				warnf(warn, "%s", msg)
			}
			tunable[entry.prefix+"."+name] = true
		}
	}
	return tunable, nil
}

// SuggestTree walks a nested mapping of Tunables and has each one sample
// its parameters from the trial, in place. only restricts sampling to the
// dotted names it contains; nil means everything TreeTunable would report.
// Leftover only entries that match no tunable are warned about.
func SuggestTree(trial Trial, tree map[string]any, only map[string]bool, onDot Policy, warn WarnFunc) error {
	if onDot == PolicyDefault {
		onDot = PolicyWarn
	}
	secondPass := false
	if only == nil {
		var err error
		only, err = TreeTunable(tree, onDot, warn)
		if err != nil {
			return err
		}
		secondPass = true
	} else {
		copied := make(map[string]bool, len(only))
		for name, in := range only {
			if in {
				copied[name] = true
			}
		}
		only = copied
	}

	crawlDot := onDot
	if secondPass {
		crawlDot = PolicyIgnore
	}
	entries, err := tunablesFromTree(tree, crawlDot, warn, "")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		prefix := entry.prefix + "."
		prefixOnly := make(map[string]bool)
		declared := entry.tunable.Tunable()
		for name := range only {
			if strings.HasPrefix(name, prefix) && declared[name[len(prefix):]] {
				prefixOnly[name[len(prefix):]] = true
				delete(only, name)
			}
		}
		if err := entry.tunable.Suggest(trial, prefixOnly, prefix); err != nil {
			return err
		}
	}

	if len(only) > 0 {
		leftovers := make([]string, 0, len(only))
		for name := range only {
			leftovers = append(leftovers, name)
		}
		sort.Strings(leftovers)
		warnf(warn, "'only' contained extra parameters: %v", leftovers)
	}
	return nil
}

type treeEntry struct {
	prefix  string
	tunable Tunable
}

// tunablesFromTree collects Tunable values from a nested mapping along with
// the dotted key path that reached them, in sorted key order.
func tunablesFromTree(tree map[string]any, onDot Policy, warn WarnFunc, prefix string) ([]treeEntry, error) {
	var entries []treeEntry
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(key, ".") && onDot != PolicyIgnore {
			msg := fmt.Sprintf("found key%s with '.' in its name: %q", keyContext(prefix), key)
			if onDot == PolicyRaise {
				return nil, fmt.Errorf("%s", msg)
			}
			warnf(warn, "%s", msg)
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch t := tree[key].(type) {
		case Tunable:
			entries = append(entries, treeEntry{prefix: path, tunable: t})
		case map[string]any:
			children, err := tunablesFromTree(t, onDot, warn, path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, children...)
		}
	}
	return entries, nil
}

func keyContext(prefix string) string {
	if prefix == "" {
		return ""
	}
	return " at " + toMultiKey(prefix)
}

// toMultiKey renders a dotted path as ["a"]["b"] for diagnostics.
func toMultiKey(s string) string {
	return `["` + strings.ReplaceAll(s, ".", `"]["`) + `"]`
}

// ParamsTunable adapts a parameter set to the Tunable interface. Names
// lists the tunable subset of the set's parameters; Bounds holds the
// inclusive sampling range for numeric ones.
type ParamsTunable struct {
	Set    *Params
	Names  []string
	Bounds map[string][2]float64
}

func (t ParamsTunable) Tunable() map[string]bool {
	names := make(map[string]bool, len(t.Names))
	for _, name := range t.Names {
		names[name] = true
	}
	return names
}

// Suggest samples each name in only by its declared kind and stores the
// drawn value in the set. Bool parameters sample from {false, true};
// selectors from their choices; numeric kinds from Bounds.
func (t ParamsTunable) Suggest(trial Trial, only map[string]bool, prefix string) error {
	names := make([]string, 0, len(only))
	for name, in := range only {
		if in {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		kind, ok := t.Set.KindOf(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotDeclared, name)
		}
		var (
			value any
			err   error
		)
		switch kind {
		case KindFloat:
			bounds, ok := t.Bounds[name]
			if !ok {
				return fmt.Errorf("no sampling bounds for parameter %q", name)
			}
			value, err = trial.SuggestFloat(prefix+name, bounds[0], bounds[1])
		case KindInt:
			bounds, ok := t.Bounds[name]
			if !ok {
				return fmt.Errorf("no sampling bounds for parameter %q", name)
			}
			value, err = trial.SuggestInt(prefix+name, int64(bounds[0]), int64(bounds[1]))
		case KindBool:
			value, err = trial.SuggestCategorical(prefix+name, []any{false, true})
		case KindSelector:
			decl, _ := t.Set.Declaration(name)
			value, err = trial.SuggestCategorical(prefix+name, decl.Choices)
		default:
			return fmt.Errorf("cannot sample parameter %q of kind %s", name, kind)
		}
		if err != nil {
			return err
		}
		if err := t.Set.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
