// inspect_schema prints the registry a schema file builds into and the
// storage DDL GORM creates for it.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/localnerve/jam-build-admindb/internal/database"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	schemaFile := flag.String("f", "", "schema file; the built-in example when empty")
	admins := flag.String("admins", "", "comma separated admin emails")
	flag.Parse()

	var adminList []string
	for _, a := range strings.Split(*admins, ",") {
		if a = strings.TrimSpace(a); a != "" {
			adminList = append(adminList, a)
		}
	}

	reg, err := schema.LoadRegistry(*schemaFile, adminList, "contacts")
	if err != nil {
		log.Fatal(err)
	}

	for _, p := range reg.Programs() {
		fmt.Printf("\n=== Program: %s (%s) ===\n", p.ID, p.Label)
		for _, t := range reg.Tables() {
			if t.Program != p.ID {
				continue
			}
			kind := ""
			if t.System {
				kind = " [system]"
			}
			fmt.Printf("%s%s primary=%v indexed=%v\n", t.Name, kind, t.PrimaryField, t.IndexedFields())
			for _, f := range t.Fields {
				fmt.Printf("  %-20s %T optional=%t\n", f.Name, f.Type, f.Optional)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// Auto-migrate to see what GORM creates
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type IN ('table', 'index') AND sql IS NOT NULL").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== %s ===\n", table)
		var ddl string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&ddl)
		fmt.Println(ddl)
	}
}
