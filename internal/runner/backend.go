package runner

import "strings"

// Backend describes one compile+run toolchain. Commands are argument
// vectors, never shell strings; the placeholders {src} and {dir} expand
// to the materialized source file and its workspace directory.
type Backend struct {
	// Name identifies the backend in logs and run records.
	Name string
	// SourceFile is the filename the source text is written to.
	SourceFile string
	// CompileCmd is skipped entirely when empty (interpreted backends).
	CompileCmd []string
	RunCmd     []string
}

// Java is the default backend: the room's shared buffer is expected to
// hold a public class named Main.
func Java() Backend {
	return Backend{
		Name:       "java",
		SourceFile: "Main.java",
		CompileCmd: []string{"javac", "{src}"},
		RunCmd:     []string{"java", "-cp", "{dir}", "Main"},
	}
}

func expandArgv(argv []string, dir, src string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		arg = strings.ReplaceAll(arg, "{dir}", dir)
		arg = strings.ReplaceAll(arg, "{src}", src)
		out[i] = arg
	}
	return out
}
