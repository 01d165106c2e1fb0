package domain

import "time"

// Project is the canonical relational record for a workspace project. The
// relational row is authoritative for existence; the tree document in the
// document store derives its lifetime from it.
type Project struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// ProjectSummary is the owned-projects listing shape.
type ProjectSummary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreationDate time.Time `json:"creationDate"`
}

// SharedProject is the collaborated-projects listing shape.
type SharedProject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
