// containers.go
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

package helpers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testDatabase = "admindb"
	testUser     = "admindb"
	testPassword = "admindb-secret"
)

// Logger receives progress messages; *testing.T satisfies it.
type Logger interface {
	Logf(format string, args ...any)
}

type stdoutLogger struct{}

func (stdoutLogger) Logf(format string, args ...any) { fmt.Printf(format+"\n", args...) }

// Database is a running database container and the config that reaches it.
type Database struct {
	Container testcontainers.Container
	Config    *config.Config
}

type engine struct {
	image string
	port  nat.Port
	env   map[string]string
	wait  wait.Strategy
}

func engineFor(dbType string) (engine, error) {
	switch dbType {
	case "postgres":
		return engine{
			image: getEnv("POSTGRES_IMAGE", "postgres:16-alpine"),
			port:  "5432/tcp",
			env: map[string]string{
				"POSTGRES_PASSWORD": testPassword,
				"POSTGRES_USER":     testUser,
				"POSTGRES_DB":       testDatabase,
			},
			wait: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}, nil
	case "mysql", "mariadb":
		return engine{
			image: getEnv("DB_IMAGE", "mariadb:11"),
			port:  "3306/tcp",
			env: map[string]string{
				"MYSQL_ROOT_PASSWORD": testPassword,
				"MYSQL_DATABASE":      testDatabase,
				"MYSQL_USER":          testUser,
				"MYSQL_PASSWORD":      testPassword,
			},
			wait: wait.ForListeningPort("3306/tcp").WithStartupTimeout(60 * time.Second),
		}, nil
	}
	return engine{}, fmt.Errorf("no test container for database type %q", dbType)
}

// StartDatabase runs a database container of dbType and returns a config
// pointing at its mapped port. log may be nil.
func StartDatabase(ctx context.Context, log Logger, dbType string) (*Database, error) {
	if log == nil {
		log = stdoutLogger{}
	}
	eng, err := engineFor(dbType)
	if err != nil {
		return nil, err
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        eng.image,
			ExposedPorts: []string{string(eng.port)},
			Env:          eng.env,
			WaitingFor:   eng.wait,
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", eng.image, err)
	}
	d := &Database{Container: c}

	host, err := c.Host(ctx)
	if err != nil {
		d.Terminate(log)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := c.MappedPort(ctx, eng.port)
	if err != nil {
		d.Terminate(log)
		return nil, fmt.Errorf("container port: %w", err)
	}

	d.Config = &config.Config{
		DBType:               dbType,
		DBHost:               host,
		DBPort:               port.Port(),
		DBAppDatabase:        testDatabase,
		DBAppUser:            testUser,
		DBAppPassword:        testPassword,
		DBAppConnectionLimit: 10,
	}
	log.Logf("DB_TYPE=%s DB_HOST=%s DB_PORT=%s", dbType, host, port.Port())
	return d, nil
}

// Connect opens and migrates the container's database, retrying while the
// server finishes its first start.
func (d *Database) Connect(ctx context.Context) (*gorm.DB, error) {
	var lastErr error
	for i := 0; i < 30; i++ {
		db, err := database.Connect(d.Config, zap.NewNop())
		if err == nil {
			if err = database.AutoMigrate(db); err == nil {
				return db, nil
			}
			_ = database.Close(db)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("database not ready after 30 attempts: %w", lastErr)
}

func (d *Database) Terminate(log Logger) {
	if d.Container == nil {
		return
	}
	if err := d.Container.Terminate(context.Background()); err != nil && log != nil {
		log.Logf("Failed to terminate database container: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
