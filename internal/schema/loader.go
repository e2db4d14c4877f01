package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileSchema struct {
	Programs      []Program   `yaml:"programs"`
	SharedProgram string      `yaml:"sharedProgram"`
	PeopleTable   string      `yaml:"peopleTable"`
	AdminEmails   []string    `yaml:"adminEmails"`
	Tables        []fileTable `yaml:"tables"`
}

type fileTable struct {
	Name              string         `yaml:"name"`
	PrimaryField      stringList     `yaml:"primaryField"`
	Icon              string         `yaml:"icon"`
	Category          string         `yaml:"category"`
	Description       string         `yaml:"description"`
	DefaultSort       *Sort          `yaml:"defaultSort"`
	Review            ReviewConfig   `yaml:"reviewConfig"`
	Fields            []fileField    `yaml:"fields"`
	Lookups           []Lookup       `yaml:"lookups"`
	LinkedRecords     []LinkedRecord `yaml:"linkedRecords"`
	DefaultFieldOrder []string       `yaml:"defaultFieldOrder"`
}

type fileField struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
	Indexed  bool   `yaml:"indexed"`
	AutoNow  bool   `yaml:"autoNow"`
}

// stringList decodes either a single scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = stringList{value.Value}
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	*l = stringList(items)
	return nil
}

// LoadDescriptors reads table descriptors and registry options from a YAML file.
func LoadDescriptors(path string) ([]Descriptor, Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Options{}, fmt.Errorf("read schema file: %w", err)
	}
	return ParseDescriptors(data)
}

// ParseDescriptors decodes the YAML schema format.
func ParseDescriptors(data []byte) ([]Descriptor, Options, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, Options{}, fmt.Errorf("parse schema file: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(fs.Tables))
	for _, t := range fs.Tables {
		d := Descriptor{
			Name:              t.Name,
			PrimaryField:      []string(t.PrimaryField),
			Icon:              t.Icon,
			Category:          t.Category,
			Description:       t.Description,
			DefaultSort:       t.DefaultSort,
			Review:            t.Review,
			Lookups:           t.Lookups,
			LinkedRecords:     t.LinkedRecords,
			DefaultFieldOrder: t.DefaultFieldOrder,
		}
		for _, f := range t.Fields {
			ft, err := ParseFieldType(f.Type)
			if err != nil {
				return nil, Options{}, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
			}
			d.Fields = append(d.Fields, Field{
				Name:     f.Name,
				Type:     ft,
				Optional: f.Optional,
				Indexed:  f.Indexed,
				AutoNow:  f.AutoNow,
			})
		}
		descriptors = append(descriptors, d)
	}

	opts := Options{
		Programs:      fs.Programs,
		SharedProgram: fs.SharedProgram,
		PeopleTable:   fs.PeopleTable,
		AdminEmails:   fs.AdminEmails,
	}
	return descriptors, opts, nil
}

// LoadRegistry builds the registry from a schema file, or from Example when
// path is empty. admins are added to the file's admin list; peopleTable
// applies when the file names none.
func LoadRegistry(path string, admins []string, peopleTable string) (*Registry, error) {
	if path == "" {
		opts := ExampleOptions(admins)
		if peopleTable != "" {
			opts.PeopleTable = peopleTable
		}
		return Build(Example(), opts)
	}

	descriptors, opts, err := LoadDescriptors(path)
	if err != nil {
		return nil, err
	}
	opts.AdminEmails = append(opts.AdminEmails, admins...)
	if opts.PeopleTable == "" {
		opts.PeopleTable = peopleTable
	}
	return Build(descriptors, opts)
}
