// Package clams builds nested command-line interfaces, in the style of git, from handler functions
// registered against command paths.
//
// A [Tree] holds the commands. Each command is registered with [Tree.Register] under a path such as
// "remote add", and its arguments are declared with [Arg], using the same vocabulary as a
// conventional add-argument call: nargs, default, help, type, action, choices. Arguments and
// handlers may be declared in any order; [Tree.Init] checks that they line up.
//
//	tree := clams.New("git")
//	tree.MustRegister(clams.Path("remote add"), addRemote,
//		clams.Summary("Add a named remote"),
//		clams.Arg("name"),
//		clams.Arg("url"),
//	)
//	tree.Main(context.Background())
//
// At run time the tree consumes command names from the front of the argument vector, hands the
// rest to a flag library ([StdFlags] or [POSIXFlags]) and binds positional arguments in declaration
// order before calling the handler. Handlers read their values with [Get] and [Lookup].
package clams
