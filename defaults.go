package clams

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// LoadDefaults replaces argument defaults with values read from a TOML document. Tables follow
// the command path and keys name argument dests:
//
//	verbose = true
//
//	[remote.add]
//	url = "git@example.com:project.git"
//
// Values are converted to the argument's type; strings are parsed the same way command-line tokens
// are. A table naming a command that does not exist is reported as an [*UnknownCommandError].
// Commands must be declared before their defaults are loaded.
func (t *Tree) LoadDefaults(r io.Reader) error {
	var doc map[string]any
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	if err := applyDefaults(t.root, doc); err != nil {
		return err
	}
	t.logger.WithField("keys", len(doc)).Debug("loaded defaults")
	return nil
}

// LoadDefaultsFile is like [Tree.LoadDefaults] but reads the named file. A missing file is not an
// error.
func (t *Tree) LoadDefaultsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open defaults file: %w", err)
	}
	defer f.Close()
	if err := t.LoadDefaults(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func applyDefaults(n *Node, table map[string]any) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := table[key]
		if sub, ok := value.(map[string]any); ok {
			child, ok := n.children[key]
			if !ok {
				return &UnknownCommandError{Path: append(n.Path(), key)}
			}
			if err := applyDefaults(child, sub); err != nil {
				return err
			}
			continue
		}

		idx := slices.IndexFunc(n.args, func(s *ArgSpec) bool { return s.Dest == key })
		if idx < 0 {
			return fmt.Errorf("command %q: no argument stores to %q", n.FullName(), key)
		}
		spec := n.args[idx]
		var (
			converted any
			err       error
		)
		if spec.list() {
			converted, err = coerceSlice(spec.effectiveKind(), value)
		} else {
			converted, err = coerce(spec.effectiveKind(), value)
		}
		if err != nil {
			return fmt.Errorf("command %q: default for %q: %w", n.FullName(), key, err)
		}
		spec.Default = converted
	}
	return nil
}
