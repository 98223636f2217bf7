package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	author := createTestUser(t, db, "author")
	item := createTestItem(t, db, owner.ID, "Drill", true)

	first := &models.Comment{ItemID: item.ID, AuthorID: author.ID, Text: "Great drill", Created: testNow}
	require.NoError(t, db.CreateComment(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, "author", first.AuthorName)

	second := &models.Comment{ItemID: item.ID, AuthorID: author.ID, Text: "Still great", Created: testNow.Add(time.Hour)}
	require.NoError(t, db.CreateComment(ctx, second))

	comments, err := db.GetCommentsByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, "Great drill", comments[0].Text)
	assert.Equal(t, "author", comments[0].AuthorName)
	assert.True(t, comments[0].Created.Equal(testNow))
	assert.Equal(t, second.ID, comments[1].ID)

	none, err := db.GetCommentsByItem(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	err = db.CreateComment(ctx, &models.Comment{ItemID: 999, AuthorID: author.ID, Text: "x"})
	assert.Error(t, err, "foreign keys are enforced")
}
