/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"path"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
)

const defaultNamespace = "root"

var (
	nonWordRegexp   = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	colonParamRegex = regexp.MustCompile(`:(\w+)`)
	braceParamRegex = regexp.MustCompile(`\{(\w+)\}`)
)

// UnifyNamespace converts a declared dotted namespace into its canonical
// form: dots become underscores and anything outside [A-Za-z0-9_] is
// dropped. An empty namespace becomes "root".
func UnifyNamespace(namespace string) string {
	if namespace == "" {
		return defaultNamespace
	}
	namespace = strings.ReplaceAll(namespace, ".", "_")
	return nonWordRegexp.ReplaceAllString(namespace, "")
}

// FileAlias returns the base name of a file without its extension, the
// default alias an include introduces
func FileAlias(filePath string) string {
	base := path.Base(filePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SplitQualified splits "a.b.C" into "a" and "b.C". ok is false when
// value holds no dot.
func SplitQualified(value string) (head, tail string, ok bool) {
	i := strings.IndexByte(value, '.')
	if i < 0 {
		return "", value, false
	}
	return value[:i], value[i+1:], true
}

// ToLowerCamelCase converts a name to lowerCamelCase
func ToLowerCamelCase(name string) string {
	return strcase.ToLowerCamel(name)
}

// ConvertPath converts hertz style path parameters (/user/:id) to the
// OpenAPI template form (/user/{id})
func ConvertPath(uri string) string {
	return colonParamRegex.ReplaceAllString(uri, "{$1}")
}

// PathParams returns the parameter names of a templated path in order
func PathParams(uri string) []string {
	matches := braceParamRegex.FindAllStringSubmatch(ConvertPath(uri), -1)
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, m[1])
	}
	return params
}
