package converter

import "strings"

// option name forms that predate the (api.X) extensions, still accepted
var legacyProtoPrefixes = []string{
	"(api_req).",
	"(api_resp).",
	"(api_method).",
	"(pb_idl.api_method).",
	"(google.api.http).",
}

// stripProtoKey turns `(api.get)`, `(agw.get)` or a legacy form such as
// `(api_method).get` into `get`. A bare `(api_method)` names the method.
func stripProtoKey(key string) (string, bool) {
	for _, ns := range []string{"api", "agw"} {
		prefix := "(" + ns + "."
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, ")") && len(key) > len(prefix)+1 {
			return key[len(prefix) : len(key)-1], true
		}
	}
	for _, prefix := range legacyProtoPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return key[len(prefix):], true
		}
	}
	if key == "(api_method)" || key == "(pb_idl.api_method)" {
		return KeyMethod, true
	}
	return "", false
}
