package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"adaptive_assessment_backend/pkg/logger"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionService owns the versioned question bank. Every mutation appends a
// QuestionVersion snapshot; version history is append-only and restoring
// from a version creates a new version instead of rewriting history.
type QuestionService struct {
	Repo        *repository.QuestionRepository
	VersionRepo *repository.QuestionVersionRepository
	Taxonomy    *repository.TaxonomyRepository
	Storage     *StorageService
	DB          *gorm.DB

	locks *util.KeyedMutex
}

func NewQuestionService(
	repo *repository.QuestionRepository,
	versionRepo *repository.QuestionVersionRepository,
	taxonomy *repository.TaxonomyRepository,
	storage *StorageService,
	db *gorm.DB,
) *QuestionService {
	return &QuestionService{
		Repo:        repo,
		VersionRepo: versionRepo,
		Taxonomy:    taxonomy,
		Storage:     storage,
		DB:          db,
		locks:       util.NewKeyedMutex(),
	}
}

type QuestionCreateRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	Type              string          `json:"type" binding:"required"`
	Content           json.RawMessage `json:"content"`
	InitialDifficulty *float64        `json:"initialDifficulty"`
	IsTemplate        bool            `json:"isTemplate"`
	TagIDs            []uint          `json:"tagIds"`
	CategoryIDs       []uint          `json:"categoryIds"`
}

type QuestionUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Content     json.RawMessage `json:"content"`
	Active      *bool           `json:"active"`
	IsTemplate  *bool           `json:"isTemplate"`
	ChangeNote  string          `json:"changeNote"`
}

func (s *QuestionService) lockKey(id uint) string {
	return fmt.Sprintf("question:%d", id)
}

func snapshotVersion(tx *gorm.DB, q *model.Question, authorID uint, note string) error {
	snap, err := json.Marshal(model.SnapshotOf(q))
	if err != nil {
		return err
	}
	v := &model.QuestionVersion{
		QuestionID:    q.ID,
		VersionNumber: q.CurrentVersion,
		AuthorID:      authorID,
		ChangeNote:    note,
		Content:       string(snap),
	}
	return tx.Create(v).Error
}

// Create persists a new question at version 1 and writes the version 1
// snapshot in the same transaction. The difficulty seed defaults to 50.
func (s *QuestionService) Create(creatorID uint, req QuestionCreateRequest) (*model.Question, error) {
	if !model.ValidQuestionType(req.Type) {
		return nil, util.NewValidation("unknown question type %q", req.Type)
	}
	seed := 50.0
	if req.InitialDifficulty != nil {
		seed = *req.InitialDifficulty
		if seed < 0 || seed > 100 {
			return nil, util.NewValidation("initial difficulty %g outside the 0-100 scale", seed)
		}
	}

	q := &model.Question{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Content:     req.Content,
		IsTemplate:  req.IsTemplate,
		Active:      true,
		CreatorID:   creatorID,
		Difficulty: model.DifficultyMetrics{
			InitialDifficulty: seed,
			CurrentDifficulty: seed,
		},
		CurrentVersion: 1,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		if err := snapshotVersion(tx, q, creatorID, "Initial version"); err != nil {
			return err
		}
		for _, tagID := range req.TagIDs {
			tag, err := s.Taxonomy.FindTagByID(tagID)
			if err != nil {
				return util.NewNotFound("tag", tagID)
			}
			if err := tx.Model(q).Association("Tags").Append(tag); err != nil {
				return err
			}
		}
		for _, catID := range req.CategoryIDs {
			cat, err := s.Taxonomy.FindCategoryByID(catID)
			if err != nil {
				return util.NewNotFound("category", catID)
			}
			if err := tx.Model(q).Association("Categories").Append(cat); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Update applies a patch, bumps currentVersion and snapshots the new state.
// Version record N always equals the state the question had while
// currentVersion == N, so getVersion(currentVersion-before-update) is the
// pre-update state.
func (s *QuestionService) Update(authorID, id uint, req QuestionUpdateRequest) (*model.Question, error) {
	key := s.lockKey(id)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var updated *model.Question
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		q, err := s.Repo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NewNotFound("question", id)
			}
			return err
		}

		if req.Title != nil {
			q.Title = *req.Title
		}
		if req.Description != nil {
			q.Description = *req.Description
		}
		if len(req.Content) > 0 {
			q.Content = req.Content
		}
		if req.Active != nil {
			q.Active = *req.Active
		}
		if req.IsTemplate != nil {
			q.IsTemplate = *req.IsTemplate
		}

		q.CurrentVersion++
		if err := tx.Save(q).Error; err != nil {
			return err
		}

		note := req.ChangeNote
		if note == "" {
			note = "Updated question"
		}
		if err := snapshotVersion(tx, q, authorID, note); err != nil {
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *QuestionService) FindOne(id uint) (*model.Question, error) {
	q, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFound("question", id)
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) FindAll(f repository.QuestionFilter) ([]model.Question, int64, error) {
	return s.Repo.FindAll(f)
}

// Duplicate clones a question's content fields under a new identity with
// zeroed usage counters and a fresh version history.
func (s *QuestionService) Duplicate(creatorID, id uint) (*model.Question, error) {
	src, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	clone := &model.Question{
		Title:       src.Title,
		Description: src.Description,
		Type:        src.Type,
		Content:     src.Content,
		IsTemplate:  src.IsTemplate,
		Active:      src.Active,
		CreatorID:   creatorID,
		Difficulty: model.DifficultyMetrics{
			InitialDifficulty: src.Difficulty.InitialDifficulty,
			CurrentDifficulty: src.Difficulty.CurrentDifficulty,
		},
		CurrentVersion: 1,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return err
		}
		if err := snapshotVersion(tx, clone, creatorID, fmt.Sprintf("Duplicated from question %d", src.ID)); err != nil {
			return err
		}
		if len(src.Tags) > 0 {
			if err := tx.Model(clone).Association("Tags").Append(src.Tags); err != nil {
				return err
			}
		}
		if len(src.Categories) > 0 {
			if err := tx.Model(clone).Association("Categories").Append(src.Categories); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *QuestionService) GetVersionHistory(id uint) ([]model.QuestionVersion, error) {
	if _, err := s.FindOne(id); err != nil {
		return nil, err
	}
	return s.VersionRepo.ListByQuestion(id)
}

func (s *QuestionService) GetVersion(id uint, versionNumber int) (*model.QuestionVersion, error) {
	v, err := s.VersionRepo.FindByNumber(id, versionNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &util.NotFoundError{Entity: "question", ID: id, Extra: fmt.Sprintf("version %d", versionNumber)}
		}
		return nil, err
	}
	return v, nil
}

// RestoreVersion copies a historical snapshot's content fields onto the live
// question as a new version. The restored-from version stays retrievable
// unchanged and no version is ever renumbered.
func (s *QuestionService) RestoreVersion(authorID, id uint, versionNumber int) (*model.Question, error) {
	key := s.lockKey(id)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	v, err := s.GetVersion(id, versionNumber)
	if err != nil {
		return nil, err
	}

	var snap model.QuestionSnapshot
	if err := json.Unmarshal([]byte(v.Content), &snap); err != nil {
		return nil, err
	}

	var restored *model.Question
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		q, err := s.Repo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.NewNotFound("question", id)
			}
			return err
		}

		snap.Apply(q)
		q.CurrentVersion++
		if err := tx.Save(q).Error; err != nil {
			return err
		}
		if err := snapshotVersion(tx, q, authorID, fmt.Sprintf("Restored from version %d", versionNumber)); err != nil {
			return err
		}
		restored = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// Tag/category association ops are idempotent set-membership updates: adding
// a present member or removing an absent one returns the question unchanged.

func (s *QuestionService) AddTag(questionID, tagID uint) (*model.Question, error) {
	q, err := s.FindOne(questionID)
	if err != nil {
		return nil, err
	}
	for _, t := range q.Tags {
		if t.ID == tagID {
			return q, nil
		}
	}
	tag, err := s.Taxonomy.FindTagByID(tagID)
	if err != nil {
		return nil, util.NewNotFound("tag", tagID)
	}
	if err := s.Repo.AddTag(q, tag); err != nil {
		return nil, err
	}
	return s.FindOne(questionID)
}

func (s *QuestionService) RemoveTag(questionID, tagID uint) (*model.Question, error) {
	q, err := s.FindOne(questionID)
	if err != nil {
		return nil, err
	}
	for _, t := range q.Tags {
		if t.ID == tagID {
			if err := s.Repo.RemoveTag(q, &model.Tag{BaseModel: model.BaseModel{ID: tagID}}); err != nil {
				return nil, err
			}
			return s.FindOne(questionID)
		}
	}
	return q, nil
}

func (s *QuestionService) AddCategory(questionID, categoryID uint) (*model.Question, error) {
	q, err := s.FindOne(questionID)
	if err != nil {
		return nil, err
	}
	for _, c := range q.Categories {
		if c.ID == categoryID {
			return q, nil
		}
	}
	cat, err := s.Taxonomy.FindCategoryByID(categoryID)
	if err != nil {
		return nil, util.NewNotFound("category", categoryID)
	}
	if err := s.Repo.AddCategory(q, cat); err != nil {
		return nil, err
	}
	return s.FindOne(questionID)
}

func (s *QuestionService) RemoveCategory(questionID, categoryID uint) (*model.Question, error) {
	q, err := s.FindOne(questionID)
	if err != nil {
		return nil, err
	}
	for _, c := range q.Categories {
		if c.ID == categoryID {
			if err := s.Repo.RemoveCategory(q, &model.Category{BaseModel: model.BaseModel{ID: categoryID}}); err != nil {
				return nil, err
			}
			return s.FindOne(questionID)
		}
	}
	return q, nil
}

// ExportQuestions serializes the filtered bank to JSON or CSV and stores the
// artifact through the storage provider, returning its URL.
func (s *QuestionService) ExportQuestions(ctx context.Context, f repository.QuestionFilter, format string) (string, error) {
	if f.Limit <= 0 {
		f.Limit = 1000
	}
	questions, _, err := s.Repo.FindAll(f)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv"
		w := csv.NewWriter(&buf)
		w.Write([]string{"id", "title", "type", "currentDifficulty", "usageCount", "successRate", "active"})
		for _, q := range questions {
			w.Write([]string{
				strconv.FormatUint(uint64(q.ID), 10),
				q.Title,
				q.Type,
				strconv.FormatFloat(q.Difficulty.CurrentDifficulty, 'f', 2, 64),
				strconv.Itoa(q.UsageCount),
				strconv.FormatFloat(q.Difficulty.SuccessRate, 'f', 4, 64),
				strconv.FormatBool(q.Active),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", err
		}
	case "", "json":
		format = "json"
		contentType = "application/json"
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(questions); err != nil {
			return "", err
		}
	default:
		return "", util.NewValidation("unsupported export format %q", format)
	}

	filename := fmt.Sprintf("question_bank_%s.%s", time.Now().Format("20060102T150405"), format)
	url, err := s.Storage.Upload(ctx, filename, &buf, int64(buf.Len()), contentType)
	if err != nil {
		return "", err
	}
	logger.Log.Info("question bank exported",
		zap.String("file", filename),
		zap.Int("questions", len(questions)))
	return url, nil
}
