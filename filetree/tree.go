package filetree

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/storage"
)

// Node is one file or folder of the cached project tree.
type Node struct {
	Name string
	// Path is relative to the project root; "" for the root itself.
	Path   string
	IsFile bool
	// IsBaseFile marks the root of a tree, the node New returned.
	IsBaseFile bool
	Children   []*Node
	Parent     *Node `json:"-"`
}

// Filter returns true for names Discover should leave out.
type Filter func(name string) bool

// New returns an undiscovered root folder node for p.
func New(p string) *Node {
	return &Node{
		Name:       path.Base(p),
		Path:       p,
		IsBaseFile: true,
	}
}

// IsRoot reports whether n is the root of its tree. Nodes detached by
// Remove are not.
func (n *Node) IsRoot() bool {
	return n.IsBaseFile
}

// Discover replaces the children of node with the folder's content,
// recursing into sub folders. Hidden entries and entries matched by skip
// are left out; children are sorted by name.
func Discover(ctx context.Context, fsys storage.FileSystem, node *Node, skip Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := fsys.ReadDir(node.Path)
	if err != nil {
		return err
	}

	node.Children = node.Children[:0]
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		child := &Node{
			Name:   name,
			Path:   path.Join(node.Path, name),
			IsFile: !entry.IsDir(),
			Parent: node,
		}
		if skip != nil && skip(child.Path) {
			continue
		}

		if !child.IsFile {
			if err := Discover(ctx, fsys, child, skip); err != nil {
				return err
			}
		}
		node.Children = append(node.Children, child)
	}

	sortChildren(node)
	return nil
}

// FindByPath returns the first node, depth first, whose path matches p
// ignoring ASCII case.
func FindByPath(root *Node, p string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if data.StringCmp(root.Path, p) {
		return root, true
	}
	// only descend into folders that can contain p
	if root.Path != "" && !data.HasPrefix(p, root.Path) {
		return nil, false
	}

	for _, child := range root.Children {
		if node, ok := FindByPath(child, p); ok {
			return node, true
		}
	}
	return nil, false
}

// InsertLeaf adds p below root, creating missing intermediate folders. A
// sibling with the same name, ignoring case, is returned instead of adding
// a second one.
func InsertLeaf(root *Node, p string, isFile bool) *Node {
	rel := data.ToRelativePath(p, root.Path)
	if rel == "" {
		return root
	}

	parent := root
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		last := i == len(parts)-1

		child := findChild(parent, part)
		if child == nil {
			child = &Node{
				Name:   part,
				Path:   path.Join(parent.Path, part),
				IsFile: last && isFile,
				Parent: parent,
			}
			parent.Children = append(parent.Children, child)
			sortChildren(parent)
		}
		parent = child
	}
	return parent
}

// Remove detaches the node at p from the tree.
func Remove(root *Node, p string) bool {
	node, ok := FindByPath(root, p)
	if !ok || node.Parent == nil {
		return false
	}

	parent := node.Parent
	for i, child := range parent.Children {
		if child == node {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	node.Parent = nil
	return true
}

// Walk calls fn for every node depth first, parents before children. A
// false return skips the children of that node.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, fn)
	}
}

// Files returns the paths of all files below root.
func Files(root *Node) []string {
	var files []string
	Walk(root, func(n *Node) bool {
		if n.IsFile {
			files = append(files, n.Path)
		}
		return true
	})
	return files
}

func findChild(parent *Node, name string) *Node {
	for _, child := range parent.Children {
		if data.StringCmp(child.Name, name) {
			return child
		}
	}
	return nil
}

func sortChildren(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		return node.Children[i].Name < node.Children[j].Name
	})
}
