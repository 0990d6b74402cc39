package main

import (
	"flag"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localnerve/docsdb/internal/database"
)

// Prints the sqlite DDL that AutoMigrate produces for the docsdb models
func main() {
	var table string
	flag.StringVar(&table, "table", "", "only print this table and its indexes")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Fatal(err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	query := db.Table("sqlite_master").Where("type = ?", "table").Order("name")
	if table != "" {
		query = query.Where("name = ?", table)
	}
	if err := query.Pluck("name", &tables).Error; err != nil {
		log.Fatal(err)
	}
	if len(tables) == 0 {
		log.Fatalf("no table named %q", table)
	}

	for _, name := range tables {
		fmt.Printf("\n=== Table: %s ===\n", name)
		var statements []string
		db.Table("sqlite_master").
			Where("tbl_name = ? AND sql IS NOT NULL", name).
			Order("type DESC, name").
			Pluck("sql", &statements)
		for _, statement := range statements {
			fmt.Println(statement + ";")
		}
	}
}
