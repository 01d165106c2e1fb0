package domain

// TreeNode is one node of a project's hierarchical content tree. Children
// keep their stored order.
type TreeNode struct {
	Name     string     `json:"name"`
	Children []TreeNode `json:"children"`
}

// ProjectTree is the document-store record holding a project's content tree,
// keyed by the relational project id. Exactly one tree should exist per
// project; the pairing is best effort, not enforced across stores.
type ProjectTree struct {
	ProjectID int64    `json:"project_id"`
	Root      TreeNode `json:"root"`
}

// NewEmptyTree returns the tree shape written alongside a freshly created
// project record.
func NewEmptyTree(projectID int64) ProjectTree {
	return ProjectTree{
		ProjectID: projectID,
		Root:      TreeNode{Name: "root", Children: []TreeNode{}},
	}
}
