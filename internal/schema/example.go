package schema

var (
	ProjectStatuses = []string{"planning", "active", "on_hold", "completed", "cancelled"}
	TaskStatuses    = []string{"todo", "in_progress", "in_review", "done", "blocked"}
	TaskPriorities  = []string{"low", "medium", "high", "critical"}
)

// Example returns the projects-and-contacts back-office used when no schema
// file is configured. contacts is its people table.
func Example() []Descriptor {
	return []Descriptor{
		{
			Name: "contacts",
			Fields: []Field{
				{Name: "firstName", Type: Text{}},
				{Name: "lastName", Type: Text{}},
				{Name: "email", Type: Text{Format: TextEmail}, Indexed: true},
				{Name: "phone", Type: Text{Format: TextPhone}, Optional: true},
				{Name: "organization", Type: Text{}, Optional: true},
				{Name: "website", Type: Text{Format: TextURL}, Optional: true},
				{Name: "notes", Type: Text{Format: TextLong}, Optional: true},
			},
			PrimaryField: []string{"firstName", "lastName"},
			Icon:         "Users",
			Category:     "Core",
			Description:  "People and organizations you work with.",
			Review:       ReviewConfig{SubtitleField: "organization"},
			DefaultFieldOrder: []string{
				"firstName", "lastName", "email", "organization", "phone", "website", "notes",
			},
		},
		{
			Name: "projects",
			Fields: []Field{
				{Name: "title", Type: Text{}},
				{Name: "description", Type: Text{Format: TextLong}, Optional: true},
				{Name: "status", Type: Enum{Values: ProjectStatuses}, Indexed: true},
				{Name: "leadId", Type: Reference{Target: "contacts"}, Optional: true},
				{Name: "startDate", Type: ISODate{}, Optional: true},
				{Name: "budget", Type: Currency{Code: "USD"}, Optional: true},
				{Name: "createdAt", Type: Timestamp{}, AutoNow: true},
			},
			PrimaryField: []string{"title"},
			Icon:         "FolderKanban",
			Category:     "Core",
			Description:  "Projects your team is working on.",
			DefaultSort:  &Sort{Field: "createdAt", Direction: SortDesc},
			Review:       ReviewConfig{SubtitleField: "description", BadgeField: "status"},
			Lookups: []Lookup{
				{SourceField: "leadId", TargetField: "firstName", Label: "Lead"},
				{SourceField: "leadId", TargetField: "email", Label: "Lead Email"},
			},
			LinkedRecords: []LinkedRecord{
				{Key: "tasks", Label: "Tasks", TargetTable: "tasks", ReverseField: "projectId", DisplayField: "title"},
			},
			DefaultFieldOrder: []string{
				"title", "status", "leadId", "startDate", "budget", "description", "createdAt",
			},
		},
		{
			Name: "tasks",
			Fields: []Field{
				{Name: "title", Type: Text{}},
				{Name: "projectId", Type: Reference{Target: "projects"}},
				{Name: "assigneeId", Type: Reference{Target: "contacts"}, Optional: true},
				{Name: "status", Type: Enum{Values: TaskStatuses}, Indexed: true},
				{Name: "priority", Type: Enum{Values: TaskPriorities}},
				{Name: "dueDate", Type: ISODate{}, Optional: true},
				{Name: "effort", Type: Rating{Max: 5}, Optional: true},
				{Name: "notes", Type: Text{Format: TextLong}, Optional: true},
				{Name: "createdAt", Type: Timestamp{}, AutoNow: true},
			},
			PrimaryField: []string{"title"},
			Icon:         "CheckSquare",
			Category:     "Core",
			Description:  "Individual tasks within projects.",
			DefaultSort:  &Sort{Field: "createdAt", Direction: SortDesc},
			Review:       ReviewConfig{SubtitleField: "notes", BadgeField: "status"},
			Lookups: []Lookup{
				{SourceField: "projectId", TargetField: "title", Label: "Project"},
				{SourceField: "assigneeId", TargetField: "firstName", Label: "Assignee"},
			},
			DefaultFieldOrder: []string{
				"title", "projectId", "status", "priority", "assigneeId", "dueDate", "effort", "notes", "createdAt",
			},
		},
	}
}

// ExampleOptions pairs Example with a single program and contacts as the
// people table.
func ExampleOptions(adminEmails []string) Options {
	return Options{
		Programs:      []Program{{ID: "main", Label: "Main", Prefix: ""}},
		SharedProgram: "main",
		AdminEmails:   adminEmails,
		PeopleTable:   "contacts",
	}
}
