// Seed the question bank from a YAML fixture.
//
// Intended for first deployments and local development; running it twice
// creates duplicate questions, so point it at an empty database.
//
// Usage: go run scripts/seed_bank.go [fixture.yaml]

package main

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/service"
	"adaptive_assessment_backend/pkg/database"
	"adaptive_assessment_backend/pkg/logger"
	"encoding/json"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Questions []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	Title             string      `yaml:"title"`
	Description       string      `yaml:"description"`
	Type              string      `yaml:"type"`
	InitialDifficulty *float64    `yaml:"initialDifficulty"`
	Content           interface{} `yaml:"content"`
}

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fixture := "scripts/seed_bank.yaml"
	if len(os.Args) > 1 {
		fixture = os.Args[1]
	}
	raw, err := os.ReadFile(fixture)
	if err != nil {
		log.Fatalf("Failed to read fixture %s: %v", fixture, err)
	}

	var seeds seedFile
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		log.Fatalf("Failed to parse fixture: %v", err)
	}

	questions := service.NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewQuestionVersionRepository(db),
		repository.NewTaxonomyRepository(db),
		nil,
		db,
	)

	created := 0
	for _, s := range seeds.Questions {
		content, err := json.Marshal(s.Content)
		if err != nil {
			log.Fatalf("Failed to encode content for %q: %v", s.Title, err)
		}
		req := service.QuestionCreateRequest{
			Title:             s.Title,
			Description:       s.Description,
			Type:              s.Type,
			Content:           content,
			InitialDifficulty: s.InitialDifficulty,
		}
		if _, err := questions.Create(1, req); err != nil {
			log.Fatalf("Failed to create %q: %v", s.Title, err)
		}
		created++
	}

	log.Printf("Seeded %d questions", created)
}
