// Package samples embeds representative crash logs. The analyzer tests and
// the viewer's demo mode read them.
package samples

import (
	"embed"
	"path"
	"sort"
	"strings"
)

// Names of the embedded logs.
const (
	RhelG1           = "rhel7-g1"
	ContainerOOM     = "container-native-oom"
	WindowsTruncated = "windows-font-truncated"
)

//go:embed logs/*.log
var logs embed.FS

// Names returns the embedded log names, sorted.
func Names() []string {
	entries, err := logs.ReadDir("logs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".log"))
	}
	sort.Strings(names)
	return names
}

// Text returns the raw log.
func Text(name string) (string, bool) {
	b, err := logs.ReadFile(path.Join("logs", name+".log"))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Lines returns the log split into lines. It panics on an unknown name.
func Lines(name string) []string {
	text, ok := Text(name)
	if !ok {
		panic("samples: unknown log " + name)
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
