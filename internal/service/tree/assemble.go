package tree

import "linkvault/internal/domain/models"

// Assemble nests the three flat tables into group nodes, keeping the input
// order at every level. Subgroups whose group is absent and files whose
// subgroup is absent are dropped.
//
// Expansion flags are carried over from previous by id. Nodes that did not
// exist before start collapsed.
func Assemble(groups []models.Group, subgroups []models.Subgroup, files []models.File, previous []*models.GroupNode) []*models.GroupNode {
	wasExpanded := make(map[string]bool)
	for _, g := range previous {
		wasExpanded[g.ID] = g.IsExpanded
		for _, sg := range g.Subgroups {
			wasExpanded[sg.ID] = sg.IsExpanded
		}
	}

	// First pass: group nodes
	groupMap := make(map[string]*models.GroupNode, len(groups))
	result := make([]*models.GroupNode, 0, len(groups))
	for _, g := range groups {
		node := models.NewGroupNode(g, wasExpanded[g.ID])
		groupMap[g.ID] = node
		result = append(result, node)
	}

	// Second pass: attach subgroups to their groups
	subgroupMap := make(map[string]*models.SubgroupNode, len(subgroups))
	for _, sg := range subgroups {
		parent, ok := groupMap[sg.GroupID]
		if !ok {
			continue
		}
		node := models.NewSubgroupNode(sg, wasExpanded[sg.ID])
		subgroupMap[sg.ID] = node
		parent.Subgroups = append(parent.Subgroups, node)
	}

	// Third pass: attach files
	for _, f := range files {
		if parent, ok := subgroupMap[f.SubgroupID]; ok {
			parent.Files = append(parent.Files, f)
		}
	}

	return result
}
