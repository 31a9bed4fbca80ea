package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProjects_MembershipGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)
	bob, bobID := f.seedUser(t, "bob", models.RoleMember)
	_, carolID := f.seedUser(t, "carol", models.RoleMember)

	p, err := f.projects.Create(ctx, admin, ProjectInput{Name: " Apollo ", Members: []string{bob.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", p.Name)

	_, err = f.projects.Get(ctx, bobID, p.ID)
	require.NoError(t, err)

	_, err = f.projects.Get(ctx, carolID, p.ID)
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.projects.Get(ctx, auth.Anonymous, p.ID)
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = f.projects.Get(ctx, admin, p.ID)
	require.NoError(t, err, "admin bypasses membership")

	_, err = f.projects.Get(ctx, bobID, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.projects.Get(ctx, bobID, "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProjects_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)
	bob, bobID := f.seedUser(t, "bob", models.RoleMember)

	mine, err := f.projects.Create(ctx, admin, ProjectInput{Name: "mine", Members: []string{bob.ID}})
	require.NoError(t, err)
	_, err = f.projects.Create(ctx, admin, ProjectInput{Name: "other"})
	require.NoError(t, err)

	list, err := f.projects.List(ctx, bobID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = f.projects.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.projects.List(ctx, auth.Anonymous)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestProjects_AdminOnlyWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)
	bob, bobID := f.seedUser(t, "bob", models.RoleMember)

	_, err := f.projects.Create(ctx, bobID, ProjectInput{Name: "x"})
	require.ErrorIs(t, err, common.ErrForbidden)

	p, err := f.projects.Create(ctx, admin, ProjectInput{Name: "x", Members: []string{bob.ID}})
	require.NoError(t, err)

	_, err = f.projects.Update(ctx, bobID, p.ID, ProjectPatch{Name: ptr("y")})
	require.ErrorIs(t, err, common.ErrForbidden, "membership does not grant writes")
	require.ErrorIs(t, f.projects.Delete(ctx, bobID, p.ID), common.ErrForbidden)
	require.ErrorIs(t, f.projects.AddMember(ctx, bobID, p.ID, bob.ID), common.ErrForbidden)
	require.ErrorIs(t, f.projects.RemoveMember(ctx, bobID, p.ID, bob.ID), common.ErrForbidden)
}

func TestProjects_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)

	_, err := f.projects.Create(ctx, admin, ProjectInput{Name: "   "})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = f.projects.Create(ctx, admin, ProjectInput{Name: "ok", Members: []string{"bad-id"}})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestProjects_UpdateAndMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)
	bob, bobID := f.seedUser(t, "bob", models.RoleMember)
	carol, carolID := f.seedUser(t, "carol", models.RoleMember)

	p, err := f.projects.Create(ctx, admin, ProjectInput{Name: "x", Description: "d"})
	require.NoError(t, err)

	updated, err := f.projects.Update(ctx, admin, p.ID, ProjectPatch{
		Name:    ptr("  renamed "),
		Members: &[]string{bob.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "d", updated.Description)
	assert.Equal(t, []string{bob.ID}, updated.Members)

	_, err = f.projects.Update(ctx, admin, p.ID, ProjectPatch{Name: ptr(" ")})
	require.ErrorIs(t, err, common.ErrValidation)

	// Adding twice is a no-op.
	require.NoError(t, f.projects.AddMember(ctx, admin, p.ID, carol.ID))
	require.NoError(t, f.projects.AddMember(ctx, admin, p.ID, carol.ID))
	got, err := f.projects.Get(ctx, carolID, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bob.ID, carol.ID}, got.Members)

	require.ErrorIs(t, f.projects.AddMember(ctx, admin, p.ID, "00000000-0000-0000-0000-000000000000"), common.ErrorNotFound)
	require.ErrorIs(t, f.projects.AddMember(ctx, admin, "00000000-0000-0000-0000-000000000000", bob.ID), common.ErrorNotFound)

	require.NoError(t, f.projects.RemoveMember(ctx, admin, p.ID, bob.ID))
	require.NoError(t, f.projects.RemoveMember(ctx, admin, p.ID, bob.ID), "removing a non-member succeeds")
	_, err = f.projects.Get(ctx, bobID, p.ID)
	require.ErrorIs(t, err, common.ErrForbidden, "revocation applies on the next request")
}

func TestProjects_DeleteRemovesObjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)

	p, err := f.projects.Create(ctx, admin, ProjectInput{Name: "x"})
	require.NoError(t, err)
	task, err := f.tasks.Create(ctx, admin, p.ID, TaskInput{Title: "t"})
	require.NoError(t, err)
	file, err := f.files.Upload(ctx, admin, p.ID, task.ID, UploadInput{Name: "a.txt", Content: []byte("hi")})
	require.NoError(t, err)
	require.True(t, f.objects.has(file.StorageKey))

	require.NoError(t, f.projects.Delete(ctx, admin, p.ID))
	assert.False(t, f.objects.has(file.StorageKey))

	require.ErrorIs(t, f.projects.Delete(ctx, admin, p.ID), common.ErrorNotFound)
}

func TestProjects_GetIncludesTasksAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, admin := f.seedUser(t, "root", models.RoleAdmin)

	p, err := f.projects.Create(ctx, admin, ProjectInput{Name: "x"})
	require.NoError(t, err)
	task, err := f.tasks.Create(ctx, admin, p.ID, TaskInput{Title: "t"})
	require.NoError(t, err)
	_, err = f.files.Upload(ctx, admin, p.ID, task.ID, UploadInput{Name: "a.txt", Content: []byte("hi")})
	require.NoError(t, err)

	got, err := f.projects.Get(ctx, admin, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, 1, got.TasksCount)
	require.Len(t, got.Tasks[0].Attachments, 1)
	assert.Equal(t, "a.txt", got.Tasks[0].Attachments[0].OriginalName)
}
