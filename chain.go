package migrate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Chain is a validated, linear sequence of migrations ordered from the first step to the head.
//
// The first step may revise a revision that is not part of the chain. That revision is the
// chain's base: a database must be stamped at it before the first step can apply.
type Chain struct {
	ordered []*Migration
	index   map[string]int
	base    string
}

// NewChain orders migrations by following down revisions. It rejects duplicate revisions, branches
// (two steps revising the same revision), cycles and disconnected sets.
func NewChain(migrations []*Migration) (*Chain, error) {
	if len(migrations) == 0 {
		return nil, ErrNoMigrations
	}
	byRevision := make(map[string]*Migration, len(migrations))
	for _, m := range migrations {
		if err := m.normalize(); err != nil {
			return nil, err
		}
		if existing, ok := byRevision[m.Revision]; ok {
			return nil, fmt.Errorf("duplicate revision %s: registered by %q and %q",
				m.Revision, existing.Source, m.Source)
		}
		byRevision[m.Revision] = m
	}
	children := make(map[string]*Migration, len(migrations))
	var roots []string
	for _, m := range migrations {
		if other, ok := children[m.DownRevision]; ok {
			parent := m.DownRevision
			if parent == "" {
				parent = "<base>"
			}
			return nil, fmt.Errorf("branch detected: revisions %s and %s both revise %s",
				other.Revision, m.Revision, parent)
		}
		children[m.DownRevision] = m
		if _, ok := byRevision[m.DownRevision]; !ok {
			roots = append(roots, m.Revision)
		}
	}
	switch len(roots) {
	case 0:
		return nil, errors.New("no base revision found: revisions form a cycle")
	case 1:
	default:
		sort.Strings(roots)
		return nil, fmt.Errorf("multiple base revisions found: %v", roots)
	}
	root := byRevision[roots[0]]
	c := &Chain{
		ordered: make([]*Migration, 0, len(migrations)),
		index:   make(map[string]int, len(migrations)),
		base:    root.DownRevision,
	}
	for m := root; m != nil; m = children[m.Revision] {
		c.index[m.Revision] = len(c.ordered)
		c.ordered = append(c.ordered, m)
	}
	// With a single root and no branches, anything not reachable from the root is on a cycle.
	if len(c.ordered) != len(migrations) {
		var cyclic []string
		for rev := range byRevision {
			if _, ok := c.index[rev]; !ok {
				cyclic = append(cyclic, rev)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("revisions form a cycle: %v", cyclic)
	}
	return c, nil
}

// Migrations returns the steps from the first to the head.
func (c *Chain) Migrations() []*Migration {
	out := make([]*Migration, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Head is the revision of the last step.
func (c *Chain) Head() string {
	return c.ordered[len(c.ordered)-1].Revision
}

// Root is the revision of the first step.
func (c *Chain) Root() string {
	return c.ordered[0].Revision
}

// Base is the revision the first step revises. Empty when the chain starts from an empty
// database.
func (c *Chain) Base() string {
	return c.base
}

// Lookup returns the step with the given revision.
func (c *Chain) Lookup(rev string) (*Migration, bool) {
	i, ok := c.index[rev]
	if !ok {
		return nil, false
	}
	return c.ordered[i], true
}

// position returns how many steps are applied when the database is at rev. The base is 0.
func (c *Chain) position(rev string) (int, bool) {
	if rev == c.base {
		return 0, true
	}
	i, ok := c.index[rev]
	if !ok {
		return 0, false
	}
	return i + 1, true
}

// Resolve turns a user supplied name into a revision. It accepts a full revision, a unique prefix
// of one, the base revision, "head" and "base".
func (c *Chain) Resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("revision must not be empty")
	}
	switch strings.ToLower(name) {
	case Head:
		return c.Head(), nil
	case Base:
		return c.base, nil
	}
	if _, ok := c.position(name); ok {
		return name, nil
	}
	var matches []string
	for _, m := range c.ordered {
		if strings.HasPrefix(m.Revision, name) {
			matches = append(matches, m.Revision)
		}
	}
	if c.base != "" && strings.HasPrefix(c.base, name) {
		matches = append(matches, c.base)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%q: %w", name, ErrRevisionNotFound)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("%q matches %v: %w", name, matches, ErrAmbiguousRevision)
	}
}

// Path returns the steps that upgrade a database from revision from to revision to, in the order
// they apply. It is empty when from equals to.
func (c *Chain) Path(from, to string) ([]*Migration, error) {
	i, j, err := c.positions(from, to)
	if err != nil {
		return nil, err
	}
	if j < i {
		return nil, fmt.Errorf("revision %s is not an upgrade of %s", displayRevision(to), displayRevision(from))
	}
	return c.Migrations()[i:j], nil
}

// DownPath returns the steps that downgrade a database from revision from to revision to, in the
// order they apply. The step that produced to is not included.
func (c *Chain) DownPath(from, to string) ([]*Migration, error) {
	i, j, err := c.positions(from, to)
	if err != nil {
		return nil, err
	}
	if j > i {
		return nil, fmt.Errorf("revision %s is not a downgrade of %s", displayRevision(to), displayRevision(from))
	}
	out := make([]*Migration, 0, i-j)
	for k := i - 1; k >= j; k-- {
		out = append(out, c.ordered[k])
	}
	return out, nil
}

func (c *Chain) positions(from, to string) (int, int, error) {
	i, ok := c.position(from)
	if !ok {
		return 0, 0, fmt.Errorf("revision %s: %w", displayRevision(from), ErrRevisionNotFound)
	}
	j, ok := c.position(to)
	if !ok {
		return 0, 0, fmt.Errorf("revision %s: %w", displayRevision(to), ErrRevisionNotFound)
	}
	return i, j, nil
}

func displayRevision(rev string) string {
	if rev == "" {
		return "<base>"
	}
	return rev
}
