package migrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func step(rev, down string) *Migration {
	return NewGoMigration(rev, down, nil, nil)
}

func revisions(ms []*Migration) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Revision)
	}
	return out
}

func TestNewChain(t *testing.T) {
	t.Parallel()

	t.Run("ordered", func(t *testing.T) {
		c, err := NewChain([]*Migration{step("c3", "b2"), step("a1", ""), step("b2", "a1")})
		require.NoError(t, err)
		require.Equal(t, []string{"a1", "b2", "c3"}, revisions(c.Migrations()))
		require.Equal(t, "c3", c.Head())
		require.Equal(t, "a1", c.Root())
		require.Equal(t, "", c.Base())
	})
	t.Run("external_base", func(t *testing.T) {
		c, err := NewChain([]*Migration{step("5e552e0ec844", "bd913c5bfdfb")})
		require.NoError(t, err)
		require.Equal(t, "bd913c5bfdfb", c.Base())
		require.Equal(t, "5e552e0ec844", c.Head())
		require.Equal(t, "5e552e0ec844", c.Root())
	})
	t.Run("empty", func(t *testing.T) {
		_, err := NewChain(nil)
		require.ErrorIs(t, err, ErrNoMigrations)
	})
	t.Run("duplicate", func(t *testing.T) {
		_, err := NewChain([]*Migration{step("a1", ""), step("a1", "")})
		require.ErrorContains(t, err, "duplicate revision a1")
	})
	t.Run("branch", func(t *testing.T) {
		_, err := NewChain([]*Migration{step("a1", ""), step("b2", "a1"), step("b3", "a1")})
		require.ErrorContains(t, err, "branch detected")
	})
	t.Run("two_bases", func(t *testing.T) {
		_, err := NewChain([]*Migration{step("a1", ""), step("b2", "zz")})
		require.ErrorContains(t, err, "multiple base revisions found: [a1 b2]")
	})
	t.Run("cycle", func(t *testing.T) {
		_, err := NewChain([]*Migration{step("a1", "b2"), step("b2", "a1")})
		require.ErrorContains(t, err, "cycle")
		_, err = NewChain([]*Migration{step("a1", ""), step("c3", "d4"), step("d4", "c3")})
		require.ErrorContains(t, err, "revisions form a cycle: [c3 d4]")
	})
	t.Run("reserved", func(t *testing.T) {
		_, err := NewChain([]*Migration{step("head", "")})
		require.Error(t, err)
		_, err = NewChain([]*Migration{step("a1", "BASE")})
		require.Error(t, err)
		_, err = NewChain([]*Migration{step("a1", "a1")})
		require.Error(t, err)
		_, err = NewChain([]*Migration{step("0123456789abcdef0123456789abcdef0", "")})
		require.ErrorContains(t, err, "longer than 32")
	})
}

func TestChainResolve(t *testing.T) {
	t.Parallel()

	c, err := NewChain([]*Migration{step("ab12", "ff00"), step("ab34", "ab12"), step("cd56", "ab34")})
	require.NoError(t, err)

	for _, tc := range []struct {
		name, want string
	}{
		{"head", "cd56"},
		{"HEAD", "cd56"},
		{"base", "ff00"},
		{"ab12", "ab12"},
		{"cd", "cd56"},
		{"ab3", "ab34"},
		{"ff", "ff00"},
	} {
		got, err := c.Resolve(tc.name)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
	_, err = c.Resolve("ab")
	require.ErrorIs(t, err, ErrAmbiguousRevision)
	_, err = c.Resolve("zz")
	require.ErrorIs(t, err, ErrRevisionNotFound)
	_, err = c.Resolve("")
	require.Error(t, err)
}

func TestChainPath(t *testing.T) {
	t.Parallel()

	c, err := NewChain([]*Migration{step("a1", ""), step("b2", "a1"), step("c3", "b2"), step("d4", "c3")})
	require.NoError(t, err)

	for _, tc := range []struct {
		from, to string
		up       []string
		down     []string
	}{
		{"", "d4", []string{"a1", "b2", "c3", "d4"}, nil},
		{"a1", "c3", []string{"b2", "c3"}, nil},
		{"b2", "b2", []string{}, []string{}},
		{"d4", "a1", nil, []string{"d4", "c3", "b2"}},
		{"c3", "", nil, []string{"c3", "b2", "a1"}},
	} {
		if tc.up != nil {
			got, err := c.Path(tc.from, tc.to)
			require.NoError(t, err)
			require.Equal(t, tc.up, revisions(got))
		} else {
			_, err := c.Path(tc.from, tc.to)
			require.ErrorContains(t, err, "is not an upgrade of")
		}
		if tc.down != nil {
			got, err := c.DownPath(tc.from, tc.to)
			require.NoError(t, err)
			require.Equal(t, tc.down, revisions(got))
		} else {
			_, err := c.DownPath(tc.from, tc.to)
			require.ErrorContains(t, err, "is not a downgrade of")
		}
	}

	_, err = c.Path("zz", "a1")
	require.True(t, errors.Is(err, ErrRevisionNotFound))
	_, err = c.DownPath("a1", "zz")
	require.True(t, errors.Is(err, ErrRevisionNotFound))
}
