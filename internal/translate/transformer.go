package translate

import (
	"strings"
)

// Transformer is an EventBridge input transformer.
type Transformer struct {
	InputPathsMap map[string]string
	InputTemplate string
}

// InputTransformer renders the legacy re-nesting as an input transformer
// over the full event. Placeholders are unquoted so values keep their JSON
// type.
func InputTransformer() Transformer {
	paths := make(map[string]string, len(legacyFields))
	for _, f := range legacyFields {
		paths[f.from] = "$.detail." + f.from
	}
	return Transformer{InputPathsMap: paths, InputTemplate: renderTemplate()}
}

type templateNode struct {
	key      string
	variable string
	children []*templateNode
}

func renderTemplate() string {
	root := &templateNode{}
	for _, f := range legacyFields {
		node := root
		for _, k := range f.to {
			node = node.child(k)
		}
		node.variable = f.from
	}

	var b strings.Builder
	root.render(&b)
	return b.String()
}

func (n *templateNode) child(key string) *templateNode {
	for _, c := range n.children {
		if c.key == key {
			return c
		}
	}
	c := &templateNode{key: key}
	n.children = append(n.children, c)
	return c
}

func (n *templateNode) render(b *strings.Builder) {
	if n.variable != "" {
		b.WriteString("<" + n.variable + ">")
		return
	}
	b.WriteString("{")
	for i, c := range n.children {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + c.key + `": `)
		c.render(b)
	}
	b.WriteString("}")
}
