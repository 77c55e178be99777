package api

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// EncodeQuery serializes a nested query object the way the backend expects:
// nested objects use dot notation (`a.b=1`) and lists use bracket notation
// (`ids[]=1&ids[]=2`). Keys are emitted in sorted order so the same query
// always produces the same string. Returns "" for an empty query.
func EncodeQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}
	pairs := []string{}
	encodeQueryValue(&pairs, "", query)
	return strings.Join(pairs, "&")
}

func encodeQueryValue(pairs *[]string, prefix string, value any) {
	if value == nil {
		return
	}

	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			name := url.QueryEscape(key)
			if prefix != "" {
				name = prefix + "." + name
			}
			encodeQueryValue(pairs, name, v[key])
		}
		return
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		items := reflect.ValueOf(value)
		for i := 0; i < items.Len(); i += 1 {
			encodeQueryValue(pairs, prefix+"[]", items.Index(i).Interface())
		}
	default:
		*pairs = append(*pairs, fmt.Sprintf("%s=%s", prefix, url.QueryEscape(fmt.Sprintf("%v", value))))
	}
}

// AppendQuery attaches an encoded query string to a url, using `&` when the
// url already carries query parameters and `?` otherwise.
func AppendQuery(requestUrl string, encodedQuery string) string {
	if encodedQuery == "" {
		return requestUrl
	}
	separator := "?"
	if strings.Contains(requestUrl, "?") {
		separator = "&"
	}
	return requestUrl + separator + encodedQuery
}
