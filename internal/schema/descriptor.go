package schema

// Field is one column of a table descriptor.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
	// Indexed fields can be queried by value through the store's secondary
	// index. Reference fields are always indexed.
	Indexed bool
	// AutoNow timestamp fields are set on create when absent and refreshed
	// when a document is duplicated.
	AutoNow bool
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sort struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// ReviewConfig holds layout hints for the record review card.
type ReviewConfig struct {
	SubtitleField string `json:"subtitleField,omitempty" yaml:"subtitleField"`
	BadgeField    string `json:"badgeField,omitempty" yaml:"badgeField"`
}

// Lookup pulls TargetField from the document referenced by SourceField.
type Lookup struct {
	SourceField string `json:"sourceField" yaml:"sourceField"`
	TargetField string `json:"targetField" yaml:"targetField"`
	Label       string `json:"label" yaml:"label"`
}

// LinkedRecord lists the TargetTable documents whose ReverseField points
// back at the owning row.
type LinkedRecord struct {
	Key          string `json:"key" yaml:"key"`
	Label        string `json:"label" yaml:"label"`
	TargetTable  string `json:"targetTable" yaml:"targetTable"`
	ReverseField string `json:"reverseField" yaml:"reverseField"`
	DisplayField string `json:"displayField" yaml:"displayField"`
}

// Descriptor is the declarative metadata for one table.
type Descriptor struct {
	Name              string
	Fields            []Field
	PrimaryField      []string
	Icon              string
	Category          string
	Description       string
	DefaultSort       *Sort
	Review            ReviewConfig
	Lookups           []Lookup
	LinkedRecords     []LinkedRecord
	DefaultFieldOrder []string
	// System tables back the registry's own subsystems and are hidden from
	// navigation and the generic CRUD surface.
	System bool
}

// Program groups tables by name prefix.
type Program struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// Options configures Build.
type Options struct {
	Programs      []Program
	SharedProgram string
	AdminEmails   []string
	// PeopleTable names the table used to map admin emails to display names.
	// Empty disables name resolution.
	PeopleTable string
}
