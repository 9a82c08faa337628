package suggest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const replySchemaJSON = `{
	"type": "object",
	"required": ["tags"],
	"properties": {
		"tags": {
			"type": "array",
			"items": {"type": "string", "minLength": 1, "pattern": "\\S"}
		}
	}
}`

var (
	replySchema = mustCompile(replySchemaJSON)
	fenceRe     = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\r?\n(.*?)\r?\n?```$")
)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("suggest: compile reply schema: %v", err))
	}
	return s
}

// ParseReply extracts the tag list from a model reply.
//
// The reply is expected to be {"tags": [...]}, optionally wrapped in a Markdown
// code fence. YAML is accepted too, and a bare list is treated as the tag list.
// Tags are returned verbatim and in order.
func ParseReply(content string) ([]string, error) {
	body := stripFence(strings.TrimSpace(content))

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		if yerr := yaml.Unmarshal([]byte(body), &doc); yerr != nil {
			return nil, fmt.Errorf("suggest: decode reply: %w", yerr)
		}
	}
	if list, ok := doc.([]any); ok {
		doc = map[string]any{"tags": list}
	}

	res, err := replySchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("suggest: validate reply: %w", err)
	}
	if !res.Valid() {
		return nil, fmt.Errorf("suggest: malformed reply: %s", describe(res.Errors()))
	}

	raw := doc.(map[string]any)["tags"].([]any)
	tags := make([]string, len(raw))
	for i, t := range raw {
		tags[i] = t.(string)
	}
	return tags, nil
}

// stripFence removes a surrounding ```lang ... ``` block if present.
func stripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for i, e := range errs {
		if i == 3 {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-3))
			break
		}
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
