package service

import (
	"adaptive_assessment_backend/internal/model"
	"adaptive_assessment_backend/internal/repository"
	"adaptive_assessment_backend/internal/util"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestionDefaults(t *testing.T) {
	e := newTestEngine(t)

	q := e.createQuestion(t, "Warm-up", model.QuestionTypeMultipleChoice, mcContent())

	assert.Equal(t, 1, q.CurrentVersion)
	assert.True(t, q.Active)
	assert.Equal(t, 50.0, q.Difficulty.InitialDifficulty)
	assert.Equal(t, 50.0, q.Difficulty.CurrentDifficulty)
	assert.Equal(t, 0, q.UsageCount)

	versions, err := e.questions.GetVersionHistory(q.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, "Initial version", versions[0].ChangeNote)
}

func TestCreateQuestionValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.questions.Create(1, QuestionCreateRequest{Title: "bad", Type: "telepathy"})
	assert.True(t, util.IsValidation(err))

	seed := 140.0
	_, err = e.questions.Create(1, QuestionCreateRequest{
		Title:             "bad seed",
		Type:              model.QuestionTypeEssay,
		InitialDifficulty: &seed,
	})
	assert.True(t, util.IsValidation(err))
}

func TestUpdateBumpsVersionAndKeepsHistory(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Original title", model.QuestionTypeMultipleChoice, mcContent())

	newTitle := "Revised title"
	updated, err := e.questions.Update(2, q.ID, QuestionUpdateRequest{
		Title:      &newTitle,
		ChangeNote: "Fix wording",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentVersion)
	assert.Equal(t, "Revised title", updated.Title)

	// Version 1 still holds the pre-update state.
	v1, err := e.questions.GetVersion(q.ID, 1)
	require.NoError(t, err)
	var snap model.QuestionSnapshot
	require.NoError(t, json.Unmarshal([]byte(v1.Content), &snap))
	assert.Equal(t, "Original title", snap.Title)

	v2, err := e.questions.GetVersion(q.ID, 2)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(v2.Content), &snap))
	assert.Equal(t, "Revised title", snap.Title)
	assert.Equal(t, "Fix wording", v2.ChangeNote)
	assert.Equal(t, uint(2), v2.AuthorID)
}

func TestGetVersionNotFound(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Only one version", model.QuestionTypeEssay, nil)

	_, err := e.questions.GetVersion(q.ID, 7)
	assert.True(t, util.IsNotFound(err))
}

func TestRestoreVersionAppendsHistory(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "First", model.QuestionTypeMultipleChoice, mcContent())

	second := "Second"
	_, err := e.questions.Update(1, q.ID, QuestionUpdateRequest{Title: &second})
	require.NoError(t, err)

	restored, err := e.questions.RestoreVersion(1, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "First", restored.Title)
	assert.Equal(t, 3, restored.CurrentVersion)

	// History grew; the restored-from version is untouched.
	versions, err := e.questions.GetVersionHistory(q.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	v2, err := e.questions.GetVersion(q.ID, 2)
	require.NoError(t, err)
	var snap model.QuestionSnapshot
	require.NoError(t, json.Unmarshal([]byte(v2.Content), &snap))
	assert.Equal(t, "Second", snap.Title)
}

func TestDuplicateResetsCountersAndHistory(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Seed", model.QuestionTypeMultipleChoice, mcContent())

	require.NoError(t, e.calibration.RecordResponse(q.ID, ResponseOutcome{Correct: true, TimeSpent: 12}))

	second := "Seed v2"
	_, err := e.questions.Update(1, q.ID, QuestionUpdateRequest{Title: &second})
	require.NoError(t, err)

	clone, err := e.questions.Duplicate(5, q.ID)
	require.NoError(t, err)

	assert.NotEqual(t, q.ID, clone.ID)
	assert.Equal(t, "Seed v2", clone.Title)
	assert.Equal(t, uint(5), clone.CreatorID)
	assert.Equal(t, 1, clone.CurrentVersion)
	assert.Equal(t, 0, clone.UsageCount)
	assert.Equal(t, 0, clone.Difficulty.TotalAttempts)

	versions, err := e.questions.GetVersionHistory(clone.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
}

func TestTagAssociationIdempotent(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Tagged", model.QuestionTypeEssay, nil)

	tag := &model.Tag{Name: "exam"}
	require.NoError(t, e.taxonomy.CreateTag(tag))

	q1, err := e.questions.AddTag(q.ID, tag.ID)
	require.NoError(t, err)
	require.Len(t, q1.Tags, 1)

	// Adding again is a no-op.
	q2, err := e.questions.AddTag(q.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, q2.Tags, 1)

	q3, err := e.questions.RemoveTag(q.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, q3.Tags, 0)

	// Removing an absent tag is a no-op, not an error.
	q4, err := e.questions.RemoveTag(q.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, q4.Tags, 0)

	_, err = e.questions.AddTag(q.ID, 999)
	assert.True(t, util.IsNotFound(err))
}

func TestCategoryAssociation(t *testing.T) {
	e := newTestEngine(t)
	q := e.createQuestion(t, "Categorized", model.QuestionTypeEssay, nil)

	cat := &model.Category{Name: "Algebra"}
	require.NoError(t, e.taxonomy.CreateCategory(cat))

	q1, err := e.questions.AddCategory(q.ID, cat.ID)
	require.NoError(t, err)
	require.Len(t, q1.Categories, 1)

	q2, err := e.questions.RemoveCategory(q.ID, cat.ID)
	require.NoError(t, err)
	assert.Len(t, q2.Categories, 0)
}

func TestFindAllFilters(t *testing.T) {
	e := newTestEngine(t)
	e.createQuestion(t, "Choice one", model.QuestionTypeMultipleChoice, mcContent())
	e.createQuestion(t, "Essay one", model.QuestionTypeEssay, nil)

	qs, total, err := e.questions.FindAll(repository.QuestionFilter{Type: model.QuestionTypeEssay})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, qs, 1)
	assert.Equal(t, "Essay one", qs[0].Title)

	qs, total, err = e.questions.FindAll(repository.QuestionFilter{Search: "Choice"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, qs, 1)
}

func TestExportQuestions(t *testing.T) {
	e := newTestEngine(t)
	e.createQuestion(t, "Exported", model.QuestionTypeMultipleChoice, mcContent())

	url, err := e.questions.ExportQuestions(context.Background(), repository.QuestionFilter{}, "csv")
	require.NoError(t, err)
	assert.Contains(t, url, "/exports/question_bank_")
	assert.Contains(t, url, ".csv")

	_, err = e.questions.ExportQuestions(context.Background(), repository.QuestionFilter{}, "xml")
	assert.True(t, util.IsValidation(err))
}
