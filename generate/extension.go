package generate

import (
	"sort"
	"strings"

	"github.com/hertz-contrib/swagger-generate/idlunify/converter"
	"github.com/hertz-contrib/swagger-generate/idlunify/unify"
)

// annotation is one rendered key/value pair, key without namespace
type annotation struct {
	key   string
	value string
}

// functionAnnotations renders a function ExtensionConfig back to the verb
// shorthand form, followed by the remaining keys in sorted order
func functionAnnotations(config map[string]string) []annotation {
	var out []annotation
	method, uri := config[converter.KeyMethod], config[converter.KeyURI]
	if method != "" && uri != "" && strings.ToUpper(method) == method {
		out = append(out, annotation{key: strings.ToLower(method), value: uri})
	} else {
		if method != "" {
			out = append(out, annotation{key: converter.KeyMethod, value: method})
		}
		if uri != "" {
			out = append(out, annotation{key: converter.KeyURI, value: uri})
		}
	}
	for _, k := range sortedKeys(config) {
		if k == converter.KeyMethod || k == converter.KeyURI {
			continue
		}
		out = append(out, annotation{key: k, value: config[k]})
	}
	return out
}

// fieldAnnotations renders a field ExtensionConfig, position first
func fieldAnnotations(field *unify.FieldDefinition) []annotation {
	config := field.ExtensionConfig
	var out []annotation
	if position := config[converter.KeyPosition]; position != "" {
		key := config[converter.KeyKey]
		if key == "" {
			key = field.Name
		}
		out = append(out, annotation{key: position, value: key})
	} else if key := config[converter.KeyKey]; key != "" {
		out = append(out, annotation{key: converter.KeyKey, value: key})
	}
	for _, k := range sortedKeys(config) {
		if k == converter.KeyPosition || k == converter.KeyKey {
			continue
		}
		out = append(out, annotation{key: k, value: config[k]})
	}
	return out
}

func configAnnotations(config map[string]string) []annotation {
	out := make([]annotation, 0, len(config))
	for _, k := range sortedKeys(config) {
		out = append(out, annotation{key: k, value: config[k]})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// commentLines flattens comments into `//` lines
func commentLines(comments []unify.Comment) []string {
	var lines []string
	for _, c := range comments {
		switch c := c.(type) {
		case *unify.LineComment:
			lines = append(lines, c.Value)
		case *unify.BlockComment:
			for _, l := range c.Value {
				lines = append(lines, strings.TrimSpace(l))
			}
		}
	}
	return lines
}

func writeComments(dst *strings.Builder, indent string, comments []unify.Comment) {
	for _, line := range commentLines(comments) {
		if line == "" {
			dst.WriteString(indent + "//\n")
			continue
		}
		dst.WriteString(indent + "// " + line + "\n")
	}
}
