package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"blogfolio/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

var (
	ErrNoFrontMatter        = errors.New("no frontmatter")
	ErrMalformedFrontMatter = errors.New("malformed frontmatter")
)

// FrontMatter is the metadata block of an article. Keys other than the
// known ones are kept in Extra so rewrites do not drop them.
type FrontMatter struct {
	Title       string
	Date        string
	Author      string
	Excerpt     string
	Description string
	Status      models.Status
	Extra       map[string]interface{}
}

// Document is one article file: metadata, body and the frontmatter syntax
// it was written in.
type Document struct {
	FrontMatter FrontMatter
	Body        string
	Format      string
}

// ParseFrontMatter splits content into its frontmatter map, body and format.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, string, error) {
	str := normalizeLineEndings(string(content))

	// YAML (---)
	if raw, body, ok := splitFrontMatter(str, "---"); ok {
		fm := map[string]interface{}{}
		if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
		}
		return sanitizeFrontMatter(fm), strings.TrimSpace(body), FormatYAML, nil
	}
	// TOML (+++)
	if raw, body, ok := splitFrontMatter(str, "+++"); ok {
		fm := map[string]interface{}{}
		if err := toml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
		}
		return sanitizeFrontMatter(fm), strings.TrimSpace(body), FormatTOML, nil
	}
	// JSON ({), followed by the body
	if strings.HasPrefix(strings.TrimSpace(str), "{") {
		dec := json.NewDecoder(strings.NewReader(str))
		var fm map[string]interface{}
		if err := dec.Decode(&fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
		}
		body := str[dec.InputOffset():]
		return sanitizeFrontMatter(fm), strings.TrimSpace(body), FormatJSON, nil
	}

	return nil, strings.TrimSpace(str), "", ErrNoFrontMatter
}

// splitFrontMatter finds a block opened by delim on the first line and
// closed by delim on a line of its own.
func splitFrontMatter(str, delim string) (string, string, bool) {
	if !strings.HasPrefix(str, delim+"\n") {
		return "", "", false
	}
	rest := str[len(delim)+1:]
	if strings.HasPrefix(rest, delim) && (len(rest) == len(delim) || rest[len(delim)] == '\n') {
		return "", strings.TrimPrefix(rest[len(delim):], "\n"), true
	}

	offset := 0
	for {
		idx := strings.Index(rest[offset:], "\n"+delim)
		if idx < 0 {
			return "", "", false
		}
		end := offset + idx
		after := end + 1 + len(delim)
		if after == len(rest) {
			return rest[:end+1], "", true
		}
		if rest[after] == '\n' {
			return rest[:end+1], rest[after+1:], true
		}
		offset = after
	}
}

// ParseDocument parses an article file. Content without any frontmatter is
// treated as a body with empty YAML metadata.
func ParseDocument(content []byte) (*Document, error) {
	fm, body, format, err := ParseFrontMatter(content)
	if errors.Is(err, ErrNoFrontMatter) {
		return &Document{Body: body, Format: FormatYAML}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Document{FrontMatter: frontMatterFromMap(fm), Body: body, Format: format}, nil
}

// Bytes serialises the document in its own format.
func (d *Document) Bytes() ([]byte, error) {
	format := d.Format
	if format == "" {
		format = FormatYAML
	}
	return ConstructFileContent(d.FrontMatter, d.Body, format)
}

func ConstructFileContent(fm FrontMatter, body string, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		node, err := fm.yamlNode()
		if err != nil {
			return nil, err
		}
		if err := enc.Encode(node); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	case FormatTOML:
		buf.WriteString("+++\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(fm.toMap()); err != nil {
			return nil, err
		}
		buf.WriteString("+++\n")
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fm.toMap()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func frontMatterFromMap(fm map[string]interface{}) FrontMatter {
	out := FrontMatter{
		Title:       stringValue(fm["title"]),
		Date:        stringValue(fm["date"]),
		Author:      stringValue(fm["author"]),
		Excerpt:     stringValue(fm["excerpt"]),
		Description: stringValue(fm["description"]),
		Status:      models.Status(stringValue(fm["status"])),
	}
	for k, v := range fm {
		switch k {
		case "title", "date", "author", "excerpt", "description", "status":
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]interface{})
		}
		out.Extra[k] = v
	}
	return out
}

func (f FrontMatter) toMap() map[string]interface{} {
	m := make(map[string]interface{}, len(f.Extra)+6)
	for k, v := range f.Extra {
		m[k] = v
	}
	m["title"] = f.Title
	m["date"] = f.Date
	m["author"] = f.Author
	m["excerpt"] = f.Excerpt
	if f.Description != "" {
		m["description"] = f.Description
	}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	return m
}

// yamlNode emits the known keys in a fixed order with quoted values,
// followed by any extra keys sorted by name.
func (f FrontMatter) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	quoted := func(v string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v}
	}

	add("title", quoted(f.Title))
	add("date", quoted(f.Date))
	add("author", quoted(f.Author))
	add("excerpt", quoted(f.Excerpt))
	if f.Description != "" {
		add("description", quoted(f.Description))
	}
	if f.Status != "" {
		add("status", quoted(string(f.Status)))
	}

	keys := make([]string, 0, len(f.Extra))
	for k := range f.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := &yaml.Node{}
		if err := value.Encode(f.Extra[k]); err != nil {
			return nil, fmt.Errorf("encode frontmatter key %q: %w", k, err)
		}
		add(k, value)
	}
	return node, nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func sanitizeFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		sanitized[k] = sanitizeFrontMatterValue(v)
	}
	return sanitized
}

func sanitizeFrontMatterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return sanitizeFrontMatter(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeFrontMatterValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatterValue(v[i])
		}
		return slice
	default:
		return v
	}
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
