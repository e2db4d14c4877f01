package schema

// Infrastructure tables registered alongside the user descriptors.
const (
	ViewsTable    = "admin_views"
	CommentsTable = "admin_comments"
	UsersTable    = "admin_users"
)

func systemDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name: ViewsTable,
			Fields: []Field{
				{Name: "tableName", Type: Text{}},
				{Name: "owner", Type: Text{Format: TextEmail}, Indexed: true},
				{Name: "label", Type: Text{}},
				{Name: "isDefault", Type: Boolean{}},
				{Name: "filterState", Type: Text{Format: TextLong}, Optional: true},
				{Name: "sortState", Type: Text{Format: TextLong}, Optional: true},
				{Name: "columnOrder", Type: Text{Format: TextLong}, Optional: true},
			},
			PrimaryField: []string{"label"},
			Icon:         "Table",
			Category:     "System",
			Description:  "Saved filter, sort and column configurations.",
			System:       true,
		},
		{
			Name: CommentsTable,
			Fields: []Field{
				{Name: "tableName", Type: Text{}},
				{Name: "documentId", Type: Text{}, Indexed: true},
				{Name: "author", Type: Text{Format: TextEmail}},
				{Name: "body", Type: Text{Format: TextLong}},
				{Name: "mentions", Type: Text{Format: TextLong}, Optional: true},
			},
			PrimaryField: []string{"body"},
			Icon:         "MessageSquare",
			Category:     "System",
			Description:  "Threaded comments on records.",
			System:       true,
		},
		{
			Name: UsersTable,
			Fields: []Field{
				{Name: "email", Type: Text{Format: TextEmail}, Indexed: true},
				{Name: "name", Type: Text{}, Optional: true},
			},
			PrimaryField: []string{"email"},
			Icon:         "Shield",
			Category:     "System",
			Description:  "Admin identities.",
			System:       true,
		},
	}
}
