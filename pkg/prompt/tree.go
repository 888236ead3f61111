package prompt

import "strings"

type treeNode struct {
	name     string
	children []*treeNode
	index    map[string]*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	if c, ok := n.index[name]; ok {
		return c
	}
	c := &treeNode{name: name, index: map[string]*treeNode{}}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

// RenderTree draws the slash-separated relPaths as an ASCII tree under
// rootLabel. Directories get a trailing slash; siblings keep the order in
// which they first appear in relPaths.
func RenderTree(rootLabel string, relPaths []string) string {
	root := &treeNode{index: map[string]*treeNode{}}
	for _, rel := range relPaths {
		cur := root
		for _, part := range strings.Split(rel, "/") {
			if part == "" {
				continue
			}
			cur = cur.child(part)
		}
	}

	lines := []string{strings.TrimSuffix(rootLabel, "/") + "/"}
	var walk func(n *treeNode, prefix string)
	walk = func(n *treeNode, prefix string) {
		for i, c := range n.children {
			connector, extension := "├── ", "│   "
			if i == len(n.children)-1 {
				connector, extension = "└── ", "    "
			}
			if len(c.children) > 0 {
				lines = append(lines, prefix+connector+c.name+"/")
				walk(c, prefix+extension)
				continue
			}
			lines = append(lines, prefix+connector+c.name)
		}
	}
	walk(root, "")
	return strings.Join(lines, "\n")
}
