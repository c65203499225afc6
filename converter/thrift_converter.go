package converter

import "strings"

// annotation namespaces of Thrift, both carry the same key set
var thriftPrefixes = []string{"api.", "agw."}

const goTagKey = "go.tag"

// stripThriftKey turns `api.get` or `agw.get` into `get`
func stripThriftKey(key string) (string, bool) {
	for _, prefix := range thriftPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return key[len(prefix):], true
		}
	}
	return "", false
}

func isGoTag(key string) bool {
	return key == goTagKey || key == "("+goTagKey+")"
}
