package v3

// BlockRecord is a block row as returned by syncRecordValues.
type BlockRecord struct {
	ID             string              `json:"id"`
	Type           string              `json:"type"`
	Properties     map[string]RichText `json:"properties"`
	Format         map[string]any      `json:"format"`
	Content        []string            `json:"content"`
	Discussions    []string            `json:"discussions"`
	ViewIDs        []string            `json:"view_ids"`
	CollectionID   string              `json:"collection_id"`
	ParentID       string              `json:"parent_id"`
	ParentTable    string              `json:"parent_table"`
	Alive          bool                `json:"alive"`
	CreatedTime    int64               `json:"created_time"`
	LastEditedTime int64               `json:"last_edited_time"`
	SpaceID        string              `json:"space_id"`
	CreatedByID    string              `json:"created_by_id"`
}

// DiscussionRecord is a comment-thread container row.
type DiscussionRecord struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parent_id"`
	ParentTable string   `json:"parent_table"`
	Resolved    bool     `json:"resolved"`
	Comments    []string `json:"comments"`
	SpaceID     string   `json:"space_id"`
	Alive       bool     `json:"alive"`
}

// CommentRecord is one comment row inside a discussion.
type CommentRecord struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parent_id"`
	Text        RichText `json:"text"`
	CreatedByID string   `json:"created_by_id"`
	CreatedTime int64    `json:"created_time"`
	Alive       bool     `json:"alive"`
}

// CollectionRecord is a database row; Schema is keyed by opaque
// property id.
type CollectionRecord struct {
	ID          string                          `json:"id"`
	Name        RichText                        `json:"name"`
	Schema      map[string]CollectionSchemaProp `json:"schema"`
	ParentID    string                          `json:"parent_id"`
	ParentTable string                          `json:"parent_table"`
	Alive       bool                            `json:"alive"`
	SpaceID     string                          `json:"space_id"`
}

// CollectionSchemaProp describes one column in the internal schema
// vocabulary.
type CollectionSchemaProp struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Options      []CollectionOption `json:"options,omitempty"`
	CollectionID string             `json:"collection_id,omitempty"`
}

// CollectionOption is one select-like choice; Value carries the name.
type CollectionOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// UserRecord is a notion_user row.
type UserRecord struct {
	ID         string `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

// SpaceRecord is a workspace row; Permissions lists member user ids.
type SpaceRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Permissions []SpacePermission `json:"permissions"`
}

// SpacePermission grants one user access to a space.
type SpacePermission struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// FullName joins the user's given and family names.
func (u UserRecord) FullName() string {
	switch {
	case u.GivenName == "":
		return u.FamilyName
	case u.FamilyName == "":
		return u.GivenName
	}
	return u.GivenName + " " + u.FamilyName
}
