package repository

import (
	"context"
	"testing"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"
	"resume-studio/internal/model"
	"resume-studio/internal/transform"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentsRepoInMemory(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentsRepo(nil)

	user := uuid.New()
	doc := &domain.ResumeDocument{
		ID:        uuid.New(),
		UserID:    user,
		Title:     "CV",
		Content:   doctree.NewDoc(doctree.NewPage("a4", "", doctree.NewParagraph("hello"))),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, doc))

	// stored copies are isolated from the caller's tree
	doc.Content.Content[0].Content[0].Content[0].Text = "mutated"

	got, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", doctree.Text(got.Content))

	list, err := repo.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuiltinTemplatesAreValid(t *testing.T) {
	repo, err := NewTemplatesRepo(nil)
	require.NoError(t, err)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, tpl := range list {
		assert.True(t, tpl.Builtin)
		assert.Nil(t, tpl.Content)
	}

	for _, id := range []string{"classic", "two-column"} {
		tpl, err := repo.Get(context.Background(), id)
		require.NoError(t, err, id)

		raw, err := doctree.Marshal(tpl.Content)
		require.NoError(t, err)
		require.NoError(t, model.ValidateDocumentJSON(raw), id)

		// sample data survives a fill and extract cycle
		filled, err := transform.Inject(tpl.Content, tpl.Sample)
		require.NoError(t, err)
		data, err := transform.Extract(filled)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", data.Fields[model.FieldName], id)
		require.Len(t, data.Sections[model.SectionExperience], 1, id)
		assert.Equal(t, "Translated Menabrea's memoir\nAdded notes A to G",
			data.Sections[model.SectionExperience][0][model.FieldExpDescription], id)
		assert.Len(t, data.Sections[model.SectionSkills], 2, id)
		if id == "classic" {
			assert.Equal(t, []model.Item{{model.FieldPubTitle: "Sketch of the Analytical Engine (1843)"}},
				data.Sections[model.SectionPublications])
		}
	}
}

func TestTemplatesRepoSaveInMemory(t *testing.T) {
	ctx := context.Background()
	repo, err := NewTemplatesRepo(nil)
	require.NoError(t, err)

	err = repo.Save(ctx, &domain.Template{ID: "classic", Name: "dup"})
	assert.Error(t, err)

	tpl := &domain.Template{
		ID:      uuid.NewString(),
		Name:    "Mine",
		Content: doctree.NewDoc(doctree.NewPage("a5", "")),
	}
	require.NoError(t, repo.Save(ctx, tpl))
	assert.False(t, tpl.CreatedAt.IsZero())

	got, err := repo.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "Mine", list[2].Name)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileAggregatorInMemory(t *testing.T) {
	agg := NewProfileAggregator(nil)
	user := uuid.New()

	_, err := agg.ResumeForUser(context.Background(), user)
	assert.ErrorIs(t, err, ErrNotFound)

	agg.Put(user, model.Resume{Meta: model.Meta{Name: "Ada"}})
	r, err := agg.ResumeForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Ada", r.Meta.Name)
}
