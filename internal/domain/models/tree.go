package models

// GroupNode wraps a Group with its subgroups and the sidebar expansion flag.
// Only the Group part is ever persisted.
type GroupNode struct {
	Group
	IsExpanded bool            `json:"isExpanded"`
	Subgroups  []*SubgroupNode `json:"subgroups"`
}

// SubgroupNode wraps a Subgroup with its files and the sidebar expansion flag.
type SubgroupNode struct {
	Subgroup
	IsExpanded bool   `json:"isExpanded"`
	Files      []File `json:"files"`
}

// NewGroupNode builds a childless node for a group row.
func NewGroupNode(g Group, expanded bool) *GroupNode {
	return &GroupNode{
		Group:      g,
		IsExpanded: expanded,
		Subgroups:  []*SubgroupNode{},
	}
}

// NewSubgroupNode builds a childless node for a subgroup row.
func NewSubgroupNode(s Subgroup, expanded bool) *SubgroupNode {
	return &SubgroupNode{
		Subgroup:   s,
		IsExpanded: expanded,
		Files:      []File{},
	}
}

// Clone returns a deep copy so callers can render without holding the store lock.
func (n *GroupNode) Clone() *GroupNode {
	c := &GroupNode{
		Group:      n.Group,
		IsExpanded: n.IsExpanded,
		Subgroups:  make([]*SubgroupNode, len(n.Subgroups)),
	}
	for i, sg := range n.Subgroups {
		c.Subgroups[i] = sg.Clone()
	}
	return c
}

// Clone returns a deep copy of the subgroup node.
func (n *SubgroupNode) Clone() *SubgroupNode {
	files := make([]File, len(n.Files))
	copy(files, n.Files)
	return &SubgroupNode{
		Subgroup:   n.Subgroup,
		IsExpanded: n.IsExpanded,
		Files:      files,
	}
}

// TreeView is what the presentation layer renders.
type TreeView struct {
	Groups             []*GroupNode `json:"groups"`
	SelectedSubgroupID string       `json:"selected_subgroup_id,omitempty"`
	Error              string       `json:"error,omitempty"`
	Connected          bool         `json:"connected"`
	Loading            bool         `json:"loading"`
}
