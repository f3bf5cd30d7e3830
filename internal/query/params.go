package query

import (
	"net/url"
	"strings"
)

// maxDepth bounds bracket nesting; deeper segments are kept as one literal key.
const maxDepth = 5

// ParseQueryString decodes a raw query string using the bracket convention:
//
//	status[in]=open            -> {status: {in: "open"}}
//	tags[in][]=a&tags[in][]=b  -> {tags: {in: ["a", "b"]}}
//	sort[createdAt]=-1         -> {sort: {createdAt: "-1"}}
//	limit=10&limit=20          -> {limit: ["10", "20"]}
//
// Keys keep first-appearance order. Pairs that fail to decode are skipped.
func ParseQueryString(raw string) *Map {
	root := NewMap()
	raw = strings.TrimPrefix(raw, "?")
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		insert(root, splitKey(key), value)
	}
	return root
}

// splitKey splits "a[b][c]" into ["a", "b", "c"]. A malformed key is returned
// whole.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}
	path := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		if len(path) > maxDepth {
			path[len(path)-1] += rest
			break
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path
}

func insert(m *Map, path []string, value string) {
	key, rest := path[0], path[1:]
	i := indexOf(m, key)

	if len(rest) == 0 {
		if i < 0 {
			m.Add(key, String(value))
			return
		}
		switch existing := m.pairs[i].Value; existing.Kind {
		case KindString:
			m.pairs[i].Value = Array(existing, String(value))
		case KindArray:
			m.pairs[i].Value.List = append(existing.List, String(value))
		}
		return
	}

	if rest[0] == "" {
		if i < 0 {
			m.Add(key, Array())
			i = m.Len() - 1
		}
		existing := m.pairs[i].Value
		switch existing.Kind {
		case KindString:
			existing = Array(existing)
		case KindArray:
		default:
			return
		}
		if len(rest) == 1 {
			existing.List = append(existing.List, String(value))
		} else {
			child := NewMap()
			insert(child, rest[1:], value)
			existing.List = append(existing.List, Nested(child))
		}
		m.pairs[i].Value = existing
		return
	}

	if i < 0 {
		m.Add(key, Nested(NewMap()))
		i = m.Len() - 1
	}
	child, ok := m.pairs[i].Value.AsMap()
	if !ok {
		return
	}
	insert(child, rest, value)
}

func indexOf(m *Map, key string) int {
	for i := range m.pairs {
		if m.pairs[i].Key == key {
			return i
		}
	}
	return -1
}
