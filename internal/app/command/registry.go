// Package command holds the command tree and the dispatcher that runs
// invocations against it.
package command

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/jose-valero/soup-bot/internal/app/cooldown"
)

var (
	ErrNotFound         = errors.New("command not found")
	ErrDuplicatePath    = errors.New("command path already registered")
	ErrInvalidStructure = errors.New("invalid command structure")
	ErrInvalidOptions   = errors.New("invalid command options")
)

// MaxDepth is command, subcommand group, subcommand.
const MaxDepth = 3

type Kind int

const (
	KindGroup Kind = iota
	KindLeaf
)

// Node is a Group (children, no handler) or a Leaf (handler, no children).
type Node struct {
	Name        string
	Description string
	Kind        Kind

	parent   *Node
	children []*Node

	// leaf only
	Options   []OptionSpec
	Cooldown  *cooldown.Policy
	Ephemeral bool
	Handler   Handler
}

func (n *Node) Leaf() bool { return n.Kind == KindLeaf }

// Children in registration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) Path() []string {
	var p []string
	for cur := n; cur != nil; cur = cur.parent {
		p = append([]string{cur.Name}, p...)
	}
	return p
}

// Key is the dotted path, e.g. "debug.ping".
func (n *Node) Key() string { return strings.Join(n.Path(), ".") }

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// LeafSpec is what a caller declares for a runnable command.
type LeafSpec struct {
	Description string
	Options     []OptionSpec
	Cooldown    *cooldown.Policy
	// Ephemeral replies are visible only to the invoking user.
	Ephemeral bool
	Handler   Handler
}

// Registry is the command tree. Built once at startup, read concurrently.
type Registry struct {
	mu   sync.RWMutex
	root Node
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a leaf at path, creating the intermediate groups.
func (r *Registry) Register(path []string, spec LeafSpec) error {
	if err := validPath(path); err != nil {
		return err
	}
	if spec.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidStructure, strings.Join(path, "."))
	}
	if err := validateOptions(spec.Options); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	if spec.Cooldown != nil {
		if err := spec.Cooldown.Validate(); err != nil {
			return fmt.Errorf("%s: %w", strings.Join(path, "."), err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// check the whole path before creating anything
	cur := &r.root
	depth := 0
	for i, name := range path {
		next := cur.child(name)
		if next == nil {
			break
		}
		last := i == len(path)-1
		switch {
		case last && next.Leaf():
			return fmt.Errorf("%w: %s", ErrDuplicatePath, strings.Join(path, "."))
		case last:
			return fmt.Errorf("%w: %s is a group", ErrInvalidStructure, strings.Join(path, "."))
		case next.Leaf():
			return fmt.Errorf("%w: %s is a command, can't hold %s",
				ErrInvalidStructure, strings.Join(path[:i+1], "."), strings.Join(path, "."))
		}
		cur = next
		depth++
	}

	for _, name := range path[depth : len(path)-1] {
		g := &Node{Name: name, Kind: KindGroup, parent: cur}
		cur.children = append(cur.children, g)
		cur = g
	}
	var cd *cooldown.Policy
	if spec.Cooldown != nil {
		p := *spec.Cooldown
		cd = &p
	}
	cur.children = append(cur.children, &Node{
		Name:        path[len(path)-1],
		Description: spec.Description,
		Kind:        KindLeaf,
		parent:      cur,
		Options:     append([]OptionSpec(nil), spec.Options...),
		Cooldown:    cd,
		Ephemeral:   spec.Ephemeral,
		Handler:     spec.Handler,
	})
	return nil
}

// Describe sets the description of an existing node, usually a group.
func (r *Registry) Describe(path []string, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.resolve(path)
	if err != nil {
		return err
	}
	n.Description = description
	return nil
}

// Resolve walks path one segment at a time.
func (r *Registry) Resolve(path []string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(path)
}

func (r *Registry) resolve(path []string) (*Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	cur := &r.root
	for i, name := range path {
		next := cur.child(name)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

// Roots returns the top-level nodes in registration order.
func (r *Registry) Roots() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.Children()
}

// Leaves returns every runnable command, depth first.
func (r *Registry) Leaves() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if c.Leaf() {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(&r.root)
	return out
}

func validPath(path []string) error {
	if len(path) == 0 || len(path) > MaxDepth {
		return fmt.Errorf("%w: path depth %d, want 1..%d", ErrInvalidStructure, len(path), MaxDepth)
	}
	for _, name := range path {
		if err := validName(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
		}
	}
	return nil
}

func validName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	if len(name) > 32 {
		return fmt.Errorf("name %q longer than 32", name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsUpper(r) {
			return fmt.Errorf("name %q must be lowercase without spaces", name)
		}
	}
	return nil
}
