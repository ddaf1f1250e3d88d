// Package gradle is the bidirectional compiler between the pipeline graph
// and the Gradle build-script idiom: a deterministic generator and a
// best-effort parser over the constrained task-registration subset.
package gradle

import "github.com/sdobson/gradlekit/pkg/graph"

// typeNames maps task kinds to the Gradle task type emitted in block
// headers. Custom tasks are registered without a type suffix.
var typeNames = map[graph.TaskKind]string{
	graph.KindExec:             "Exec",
	graph.KindCopy:             "Copy",
	graph.KindDelete:           "Delete",
	graph.KindZip:              "Zip",
	graph.KindJavaCompile:      "JavaCompile",
	graph.KindTest:             "Test",
	graph.KindProcessResources: "ProcessResources",
	graph.KindHTTPCall:         "HttpCall",
}

var kindsByType = func() map[string]graph.TaskKind {
	m := make(map[string]graph.TaskKind, len(typeNames))
	for k, v := range typeNames {
		m[v] = k
	}
	return m
}()

// kindForType returns the task kind for a Gradle type name. Unknown type
// names fall back to Custom; ok reports whether the name was recognized.
func kindForType(name string) (kind graph.TaskKind, ok bool) {
	if k, found := kindsByType[name]; found {
		return k, true
	}
	return graph.KindCustom, false
}
