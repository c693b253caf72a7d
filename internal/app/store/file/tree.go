package file

import (
	"sort"

	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TreeNode is a single entry in a project's file tree. Content is never
// included; the tree is structure and sync metadata only.
type TreeNode struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Path       string             `json:"path"`
	Type       models.FileType    `json:"type"`
	SyncStatus models.SyncStatus  `json:"syncStatus"`
	Size       int64              `json:"size,omitempty"`
	Extension  string             `json:"extension,omitempty"`
	Children   []*TreeNode        `json:"children,omitempty"`
}

// BuildTree derives a nested tree from a flat record list. Children are
// ordered folders first, then files, case-insensitively by name within each
// group, so repeated calls over the same records produce identical output.
// Records whose parent is missing from the list are attached to the root
// rather than dropped.
func BuildTree(files []models.File) []*TreeNode {
	nodes := make(map[primitive.ObjectID]*TreeNode, len(files))
	for i := range files {
		f := &files[i]
		nodes[f.ID] = &TreeNode{
			ID:         f.ID,
			Name:       f.Name,
			Path:       f.Path,
			Type:       f.Type,
			SyncStatus: f.SyncStatus,
			Size:       f.Size,
			Extension:  f.Extension,
		}
	}

	var roots []*TreeNode
	for i := range files {
		f := &files[i]
		node := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortLevel(roots)
	for _, n := range nodes {
		sortLevel(n.Children)
	}
	return roots
}

func sortLevel(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == models.TypeFolder
		}
		return text.Fold(nodes[i].Name) < text.Fold(nodes[j].Name)
	})
}
