package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/jam-build-admindb/tests/helpers"
)

func main() {
	var showHelp bool
	var envFilename string
	var dbType string
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.StringVar(&dbType, "db", "", "database type (postgres, mariadb); defaults to DB_TYPE")
	flag.Parse()

	usage := `
Run an admindb development database container with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-db DB_TYPE]

ENV_FILE_PATH: path to the .env file
DB_TYPE: postgres or mariadb

example
  testcontainers -f /path/to/something/.env -db postgres
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}
	if dbType == "" {
		dbType = os.Getenv("DB_TYPE")
	}
	if dbType == "" {
		dbType = "postgres"
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	ctx := context.Background()
	d, err := helpers.StartDatabase(ctx, nil, dbType)
	if err != nil {
		log.Fatalf("Failed to create test container: %v\n", err)
	}

	db, err := d.Connect(ctx)
	if err != nil {
		d.Terminate(nil)
		log.Fatalf("Failed to migrate test database: %v\n", err)
	}
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
	log.Printf("Database %s ready; DB_DATABASE=%s DB_APP_USER=%s\n", dbType, d.Config.DBAppDatabase, d.Config.DBAppUser)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test container...\n", sig)
	d.Terminate(nil)
}
