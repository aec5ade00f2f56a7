package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches compiled schemas by Schema.Name.
var compiled sync.Map // map[string]*jsonschema.Schema

// decodeReply turns the model's text into Reply content. Without a schema
// the text is returned as a JSON string. With one, a surrounding Markdown
// code fence is dropped and the object must validate.
func decodeReply(provider string, schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		raw, err := json.Marshal(text)
		if err != nil {
			return nil, &Error{Kind: KindBadReply, Provider: provider, Err: err}
		}
		return raw, nil
	}

	raw := json.RawMessage(stripFence(text))
	if len(raw) == 0 {
		return nil, &Error{Kind: KindBadReply, Provider: provider, Err: fmt.Errorf("empty reply")}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &Error{Kind: KindBadReply, Provider: provider, Content: raw, Err: fmt.Errorf("reply is not JSON: %w", err)}
	}
	sch, err := compile(schema)
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, &Error{Kind: KindBadReply, Provider: provider, Content: raw, Err: err}
	}
	return raw, nil
}

// stripFence removes a ```json ... ``` wrapper some models add even when
// asked for bare JSON.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", schema.Name, err)
	}

	url := "mathdrill://schemas/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", schema.Name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}
	compiled.Store(schema.Name, s)
	return s, nil
}
