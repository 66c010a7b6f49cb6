package domain

import (
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// NormalizeURL gives a user-supplied URL an explicit scheme.
// Empty input stays empty. Host and path are not validated.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives the category slug from a display name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// ParseTags splits a comma separated string into trimmed, non-empty tags.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// TagList decodes from either a JSON array of strings or a single
// comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var asString string
	if err := jsoniter.Unmarshal(data, &asString); err == nil {
		*t = ParseTags(asString)
		return nil
	}

	var asSlice []string
	if err := jsoniter.Unmarshal(data, &asSlice); err != nil {
		return err
	}
	tags := make([]string, 0, len(asSlice))
	for _, s := range asSlice {
		if v := strings.TrimSpace(s); v != "" {
			tags = append(tags, v)
		}
	}
	*t = tags
	return nil
}

// Strings returns the tags as a plain slice, never nil.
func (t TagList) Strings() []string {
	if t == nil {
		return []string{}
	}
	return []string(t)
}
