package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

type catalogFile struct {
	Ingredients []struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	} `json:"ingredients"`
	Tags []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	} `json:"tags"`
}

func main() {
	path := flag.String("file", "data/catalog.json", "Catalog JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to read catalog file")
	}

	var catalog catalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to parse catalog file")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	ingredients := make([]models.Ingredient, 0, len(catalog.Ingredients))
	for _, i := range catalog.Ingredients {
		ingredients = append(ingredients, models.Ingredient{Name: i.Name, MeasurementUnit: i.MeasurementUnit})
	}
	tags := make([]models.Tag, 0, len(catalog.Tags))
	for _, t := range catalog.Tags {
		tags = append(tags, models.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug})
	}

	addedIngredients, addedTags, err := service.NewCatalogService(db).SeedCatalog(context.Background(), ingredients, tags)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed catalog")
	}

	log.Info().
		Int64("ingredients", addedIngredients).
		Int64("tags", addedTags).
		Msg("Catalog seeded")
}
