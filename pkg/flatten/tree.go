package flatten

import (
	"sort"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/source"
)

// Node is an entry in the directory tree view.
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Size     int64 // files only
	Children []*Node
}

// BuildTree turns the flat record paths into a tree under a root named rootName.
// Intermediate directories are created on demand.
func BuildTree(set source.RecordSet, rootName string) *Node {
	if rootName == "" {
		rootName = "."
	}
	root := &Node{Name: rootName, IsDir: true}
	dirs := map[string]*Node{"": root}

	for _, rec := range set {
		segs, name := SplitPath(rec.Path)
		if name == "" {
			continue
		}
		parent := root
		prefix := ""
		for _, seg := range segs {
			if prefix == "" {
				prefix = seg
			} else {
				prefix += "/" + seg
			}
			dir, ok := dirs[prefix]
			if !ok {
				dir = &Node{Name: seg, Path: prefix, IsDir: true}
				parent.Children = append(parent.Children, dir)
				dirs[prefix] = dir
			}
			parent = dir
		}
		parent.Children = append(parent.Children, &Node{Name: name, Path: rec.Path, Size: rec.Size})
	}

	sortChildren(root)
	return root
}

// sortChildren orders siblings directories first, then by name.
func sortChildren(node *Node) {
	if !node.IsDir || len(node.Children) == 0 {
		return
	}
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}

// PrintTree renders root with box-drawing connectors.
func PrintTree(root *Node) string {
	var b strings.Builder
	b.WriteString(root.Name)
	b.WriteString("\n")
	printNode(&b, root.Children, "")
	return b.String()
}

func printNode(b *strings.Builder, children []*Node, prefix string) {
	for i, node := range children {
		connector := "├── "
		next := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			next = prefix + "    "
		}

		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(node.Name)
		if node.IsDir {
			b.WriteString("/")
		}
		b.WriteString("\n")

		if node.IsDir && len(node.Children) > 0 {
			printNode(b, node.Children, next)
		}
	}
}

// Tree is BuildTree followed by PrintTree.
func Tree(set source.RecordSet, rootName string) string {
	return PrintTree(BuildTree(set, rootName))
}
