// main.go
//
// A schema-driven admin back-office data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-admindb.
// jam-build-admindb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-admindb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-admindb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/goccy/go-json"
	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/database"
	"github.com/localnerve/jam-build-admindb/internal/logging"
	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Quiet unless the check itself fails
	zlog, err := logging.New("warn")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	tables := 0
	reg, err := schema.LoadRegistry(cfg.SchemaFile, cfg.AdminEmails, cfg.PeopleTable)
	if err != nil {
		zlog.Error("Schema registry does not build", zap.Error(err))
	} else {
		tables = len(reg.NavigableTables())
	}

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Perform health check
	result := services.HealthCheck(context.Background(), cfg, db, tables, zlog)
	if reg == nil {
		result.Status = "unhealthy"
	}
	_ = database.Close(db)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}
