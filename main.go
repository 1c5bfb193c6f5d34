package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"medichart/m/internal/api"
	"medichart/m/internal/config"
	"medichart/m/internal/database"
	"medichart/m/internal/migrations"
	"medichart/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadMedications(db, cfg.CatalogCSV)

	handler := api.New(db, cfg.Secret)

	log.Printf("medichart server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
