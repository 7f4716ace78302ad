package clams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nop(ctx context.Context, s *State) error { return nil }

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates intermediate commands", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop))

		remote, err := tree.Lookup(Path("remote"))
		require.NoError(t, err)
		assert.False(t, remote.HasHandler())
		add := remote.Child("add")
		require.NotNil(t, add)
		assert.True(t, add.HasHandler())
		assert.Equal(t, []string{"remote", "add"}, add.Path())
		assert.Equal(t, "git remote add", add.FullName())
	})
	t.Run("duplicate registration", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop))
		require.NoError(t, tree.Register(Path("remote remove"), nop))
		require.NoError(t, tree.Register(Path("commit"), nop))

		err := tree.Register(Path("remote add"), nop)
		require.Error(t, err)
		var dup *DuplicateRegistrationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, []string{"remote", "add"}, dup.Path)
		assert.EqualError(t, err, `command "remote add" already registered`)
	})
	t.Run("duplicate root registration", func(t *testing.T) {
		t.Parallel()
		tree := New("tool")
		require.NoError(t, tree.Register(nil, nop))
		err := tree.Register(nil, nop)
		var dup *DuplicateRegistrationError
		require.ErrorAs(t, err, &dup)
		assert.EqualError(t, err, `command "<root>" already registered`)
	})
	t.Run("intermediate command registered after its children", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop))
		require.NoError(t, tree.Register(Path("remote"), nop))
		remote, err := tree.Lookup(Path("remote"))
		require.NoError(t, err)
		assert.True(t, remote.HasHandler())
		assert.Len(t, remote.Children(), 1)
	})
	t.Run("must register panics", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		tree.MustRegister(Path("status"), nop)
		assert.Panics(t, func() { tree.MustRegister(Path("status"), nop) })
	})
	t.Run("invalid names", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		assert.ErrorContains(t, tree.Register([]string{"sub command"}, nop), `command name "sub command" contains spaces, must be a single word`)
		assert.ErrorContains(t, tree.Register([]string{"-x"}, nop), `command name "-x" must not start with a dash`)
		assert.ErrorContains(t, tree.Register([]string{"remote", ""}, nop), "command has no name")
		assert.ErrorContains(t, tree.Register(Path("status"), nil), "nil handler")
		assert.Empty(t, tree.Root().Children())
		require.NoError(t, tree.Init())
	})
	t.Run("decorators applied in order", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop,
			Summary("Add a remote"),
			Arg("name"),
			Arg("url"),
		))
		add, err := tree.Lookup(Path("remote add"))
		require.NoError(t, err)
		assert.Equal(t, "Add a remote", add.Summary())
		require.Len(t, add.Args(), 2)
		assert.Equal(t, "name", add.Args()[0].Name)
		assert.Equal(t, "url", add.Args()[1].Name)
	})
	t.Run("failed decorator leaves command unregistered", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		err := tree.Register(Path("status"), nop, Arg("name", Required()))
		require.Error(t, err)
		_, lookupErr := tree.Lookup(Path("status"))
		var unknown *UnknownCommandError
		require.ErrorAs(t, lookupErr, &unknown)
		require.NoError(t, tree.Init())
	})
	t.Run("failed decorator rolls back earlier decorators", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.AddArgument(Path("status"), Arg("--short", WithAction(StoreTrue))))

		err := tree.Register(Path("status"), nop, Summary("Show status"), Arg("name"), Arg("name"))
		assert.ErrorContains(t, err, `both store to "name"`)
		status, lookupErr := tree.Lookup(Path("status"))
		require.NoError(t, lookupErr)
		assert.False(t, status.HasHandler())
		assert.Empty(t, status.Summary())
		require.Len(t, status.Args(), 1)
		assert.Equal(t, "--short", status.Args()[0].Name)

		require.NoError(t, tree.Register(Path("status"), nop, Summary("Show status"), Arg("name")))
		inv, err := tree.Parse([]string{"status", "README.md", "--short"})
		require.NoError(t, err)
		assert.Equal(t, "README.md", inv.Values["name"])
		assert.Equal(t, true, inv.Values["short"])
	})
	t.Run("failed decorator keeps existing commands", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop))

		err := tree.Register(Path("remote remove"), nop, Arg("name"), Arg("name"))
		require.Error(t, err)
		_, err = tree.Lookup(Path("remote remove"))
		require.Error(t, err)
		_, err = tree.Lookup(Path("remote add"))
		require.NoError(t, err)
	})
}

func TestAddArgument(t *testing.T) {
	t.Parallel()

	t.Run("before registration", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.AddArgument(Path("remote add"), Arg("name")))
		require.NoError(t, tree.Register(Path("remote add"), nop, Arg("url")))

		add, err := tree.Lookup(Path("remote add"))
		require.NoError(t, err)
		var names []string
		for _, spec := range add.Args() {
			names = append(names, spec.Name)
		}
		assert.Equal(t, []string{"name", "url"}, names)
	})
	t.Run("after registration", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop, Arg("name")))
		require.NoError(t, tree.AddArgument(Path("remote add"), Arg("url")))

		inv, err := tree.Parse([]string{"remote", "add", "origin", "git@host:repo"})
		require.NoError(t, err)
		assert.Equal(t, "origin", inv.Values["name"])
		assert.Equal(t, "git@host:repo", inv.Values["url"])
	})
	t.Run("invalid specs", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		path := Path("commit")
		require.NoError(t, tree.AddArgument(path, Arg("--message", Alias("-m"))))

		tests := []struct {
			spec *ArgSpec
			want string
		}{
			{Arg("name", Required()), `positional argument "name": required is implied by nargs`},
			{Arg("name", Alias("-n")), `positional argument "name" cannot have aliases`},
			{Arg("name", WithAction(StoreTrue)), `positional argument "name": action store_true is only valid for flags`},
			{Arg("--files", NArgs(ZeroOrMore)), `flags take a single value per occurrence`},
			{Arg("--all", Alias("a")), `alias "a" must start with a dash`},
			{Arg("--all", WithAction(StoreTrue), Choices("x")), `choices require a value-taking action`},
			{Arg("--count", Type(Int), Default("many")), `invalid default: invalid int value "many"`},
			{Arg("--"), `argument has no name`},
			{Arg("--msg", Dest("message")), `both store to "message"`},
			{Arg("--mesg", Alias("-m")), `flag -m declared twice`},
			{Arg("--all", Alias("--all"), WithAction(StoreTrue)), `flag -all spelled twice`},
			{Arg("--all", Alias("-a", "--a")), `flag -a spelled twice`},
			{nil, "nil argument spec"},
		}
		for _, tt := range tests {
			err := tree.AddArgument(path, tt.spec)
			assert.ErrorContains(t, err, tt.want)
		}
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	newTree := func(t *testing.T) *Tree {
		t.Helper()
		tree := New("git")
		require.NoError(t, tree.Register(Path("remote add"), nop))
		require.NoError(t, tree.Register(Path("remote remove"), nop))
		require.NoError(t, tree.Register(Path("status"), nop))
		return tree
	}

	t.Run("greedy leftmost", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		node, rest, err := tree.Resolve([]string{"remote", "add", "x"})
		require.NoError(t, err)
		assert.Equal(t, []string{"remote", "add"}, node.Path())
		assert.Equal(t, []string{"x"}, rest)
	})
	t.Run("command names after the first unmatched token are not consumed", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		node, rest, err := tree.Resolve([]string{"status", "remote", "add"})
		require.NoError(t, err)
		assert.Equal(t, []string{"status"}, node.Path())
		assert.Equal(t, []string{"remote", "add"}, rest)
	})
	t.Run("unknown subcommand", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		node, rest, err := tree.Resolve([]string{"remote", "unknown"})
		require.Error(t, err)
		assert.Equal(t, []string{"remote"}, node.Path())
		assert.Equal(t, []string{"unknown"}, rest)
		var noHandler *NoHandlerError
		require.ErrorAs(t, err, &noHandler)
		assert.Equal(t, "unknown", noHandler.Token)
		assert.Equal(t, node, noHandler.Command)
		assert.EqualError(t, err, `unknown command "unknown" for "git remote"`)
	})
	t.Run("suggestions", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		_, _, err := tree.Resolve([]string{"remote", "ad"})
		var noHandler *NoHandlerError
		require.ErrorAs(t, err, &noHandler)
		assert.Equal(t, []string{"add"}, noHandler.Suggestions)
		assert.Contains(t, err.Error(), `unknown command "ad" for "git remote". Did you mean one of these?`)
		assert.Contains(t, err.Error(), "\tadd")
	})
	t.Run("matching is case sensitive", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		node, _, err := tree.Resolve([]string{"STATUS"})
		require.Error(t, err)
		assert.Equal(t, tree.Root(), node)
	})
	t.Run("zero tokens", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		node, rest, err := tree.Resolve(nil)
		assert.Equal(t, tree.Root(), node)
		assert.Empty(t, rest)
		var noHandler *NoHandlerError
		require.ErrorAs(t, err, &noHandler)
		assert.Empty(t, noHandler.Token)
		assert.EqualError(t, err, `command "git" requires a subcommand`)
	})
	t.Run("zero tokens with root handler", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		require.NoError(t, tree.Register(nil, nop))
		node, rest, err := tree.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, tree.Root(), node)
		assert.Empty(t, rest)
	})
	t.Run("command with handler and children", func(t *testing.T) {
		t.Parallel()
		tree := newTree(t)
		require.NoError(t, tree.Register(Path("remote"), nop))

		node, rest, err := tree.Resolve([]string{"remote"})
		require.NoError(t, err)
		assert.Equal(t, []string{"remote"}, node.Path())
		assert.Empty(t, rest)

		node, rest, err = tree.Resolve([]string{"remote", "origin"})
		require.NoError(t, err)
		assert.Equal(t, []string{"remote"}, node.Path())
		assert.Equal(t, []string{"origin"}, rest)
	})
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tree := New("git")
	require.NoError(t, tree.Register(Path("remote add"), nop))

	node, err := tree.Lookup(nil)
	require.NoError(t, err)
	assert.Equal(t, tree.Root(), node)

	_, err = tree.Lookup(Path("remote rename"))
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"remote", "rename"}, unknown.Path)
	assert.EqualError(t, err, `unknown command "remote rename"`)
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("valid tree", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.AddArgument(Path("commit"), Arg("--message")))
		require.NoError(t, tree.Register(Path("commit"), nop))
		require.NoError(t, tree.Init())
	})
	t.Run("arguments without a command", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.Register(Path("commit"), nop))
		require.NoError(t, tree.AddArgument(Path("remote add"), Arg("name")))
		err := tree.Init()
		require.Error(t, err)
		assert.ErrorContains(t, err, `command "git remote add" was declared but never registered`)

		// Registering the handler completes the declaration.
		require.NoError(t, tree.Register(Path("remote add"), nop))
		require.NoError(t, tree.Init())
	})
	t.Run("root without a name", func(t *testing.T) {
		t.Parallel()
		err := New("").Init()
		require.Error(t, err)
		assert.ErrorContains(t, err, "root command has no name")
	})
	t.Run("empty tree", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, New("tool").Init())
	})
	t.Run("parse initializes lazily", func(t *testing.T) {
		t.Parallel()
		tree := New("git")
		require.NoError(t, tree.AddArgument(Path("ghost"), Arg("name")))
		_, err := tree.Parse([]string{"ghost"})
		require.Error(t, err)
		assert.ErrorContains(t, err, "was declared but never registered")
	})
}
