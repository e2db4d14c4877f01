package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchemaYAML = `
programs:
  - {id: main, label: Main, prefix: ""}
  - {id: hr, label: HR, prefix: "hr_"}
sharedProgram: main
peopleTable: hr_people
adminEmails: [boss@example.com]
tables:
  - name: hr_people
    primaryField: [firstName, lastName]
    fields:
      - {name: firstName, type: text}
      - {name: lastName, type: text}
      - {name: email, type: email, indexed: true}
    linkedRecords:
      - {key: reviews, label: Reviews, targetTable: hr_reviews, reverseField: personId, displayField: summary}
  - name: hr_reviews
    primaryField: summary
    defaultSort: {field: createdAt, direction: desc}
    fields:
      - {name: summary, type: longText}
      - {name: personId, type: "ref:hr_people"}
      - {name: score, type: "rating:10", optional: true}
      - {name: createdAt, type: timestamp, autoNow: true}
    lookups:
      - {sourceField: personId, targetField: email, label: Person Email}
`

func TestParseDescriptorsBuilds(t *testing.T) {
	ds, opts, err := ParseDescriptors([]byte(testSchemaYAML))
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, []string{"summary"}, ds[1].PrimaryField)
	assert.Equal(t, Rating{Max: 10}, ds[1].Fields[2].Type)
	assert.Equal(t, "hr_people", opts.PeopleTable)

	reg, err := Build(ds, opts)
	require.NoError(t, err)
	assert.Equal(t, "hr", reg.ProgramFor("hr_reviews"))
	assert.True(t, reg.IsAdmin("boss@example.com"))

	reviews, _ := reg.Table("hr_reviews")
	assert.Equal(t, "email", reviews.Lookups[0].TargetField)
}

func TestLoadDescriptorsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchemaYAML), 0o600))

	ds, _, err := LoadDescriptors(path)
	require.NoError(t, err)
	assert.Len(t, ds, 2)

	_, _, err = LoadDescriptors(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDescriptorsBadType(t *testing.T) {
	_, _, err := ParseDescriptors([]byte("tables:\n  - name: x\n    fields:\n      - {name: a, type: geo}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x.a")
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("", []string{"Admin@Example.com"}, "")
	require.NoError(t, err)
	assert.True(t, reg.IsAdmin("admin@example.com"))
	assert.Equal(t, "contacts", reg.PeopleTable())

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchemaYAML), 0o600))

	reg, err = LoadRegistry(path, []string{"ops@example.com"}, "contacts")
	require.NoError(t, err)
	assert.True(t, reg.IsAdmin("boss@example.com"))
	assert.True(t, reg.IsAdmin("ops@example.com"))
	assert.Equal(t, "hr_people", reg.PeopleTable())
}
