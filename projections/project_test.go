package projections

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	return db
}

func appendProjectHistory(t *testing.T, store eventstore.EventStore) []domain.Event {
	t.Helper()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "desc", "user-1", "org-1", "tmpl-1"))
	require.NoError(t, aggregate.Update("billing-v2", "desc-v2"))
	require.NoError(t, aggregate.Archive("admin-1", "sunset"))

	events := aggregate.Uncommitted()
	_, err := store.Append(context.Background(), aggregate.GetType(), aggregate.GetID(), 0, events)
	require.NoError(t, err)

	return events
}

func TestProjectProjectorAppliesInOrder(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormEventStore(db)
	projector := NewProjectProjector(db, store, nil, nil, config.Config{})
	ctx := context.Background()

	events := appendProjectHistory(t, store)
	for _, event := range events {
		require.NoError(t, projector.Project(ctx, event))
	}

	var row models.Project
	require.NoError(t, db.First(&row, "project_id = ?", "proj-1").Error)
	require.Equal(t, "billing-v2", row.Name)
	require.Equal(t, domain.ProjectStatusArchived, row.Status)
	require.Equal(t, 3, row.LastVersion)
}

func TestProjectProjectorRedeliveryIsNoop(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormEventStore(db)
	projector := NewProjectProjector(db, store, nil, nil, config.Config{})
	ctx := context.Background()

	events := appendProjectHistory(t, store)
	for _, event := range events {
		require.NoError(t, projector.Project(ctx, event))
	}

	var before models.Project
	require.NoError(t, db.First(&before, "project_id = ?", "proj-1").Error)

	// Redeliver every event, twice
	for i := 0; i < 2; i++ {
		for _, event := range events {
			require.NoError(t, projector.Project(ctx, event))
		}
	}

	var after models.Project
	require.NoError(t, db.First(&after, "project_id = ?", "proj-1").Error)
	require.Equal(t, before, after)
}

func TestProjectProjectorGapTriggersRederive(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormEventStore(db)
	projector := NewProjectProjector(db, store, nil, nil, config.Config{})
	ctx := context.Background()

	events := appendProjectHistory(t, store)

	// Deliver v1, then v3 with v2 missing, then the stale v2
	require.NoError(t, projector.Project(ctx, events[0]))
	require.NoError(t, projector.Project(ctx, events[2]))
	require.NoError(t, projector.Project(ctx, events[1]))

	var row models.Project
	require.NoError(t, db.First(&row, "project_id = ?", "proj-1").Error)
	require.Equal(t, 3, row.LastVersion)
	require.Equal(t, "billing-v2", row.Name)
	require.Equal(t, domain.ProjectStatusArchived, row.Status)
}

func TestProjectProjectorOrgSummary(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormEventStore(db)
	projector := NewProjectProjector(db, store, nil, nil, config.Config{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		aggregate := domain.NewProjectAggregate(fmt.Sprintf("proj-%d", i))
		require.NoError(t, aggregate.Create(fmt.Sprintf("svc-%d", i), "", "user-1", "org-1", ""))
		if i == 3 {
			require.NoError(t, aggregate.Archive("admin", ""))
		}
		events := aggregate.Uncommitted()
		_, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, events)
		require.NoError(t, err)
		for _, event := range events {
			require.NoError(t, projector.Project(ctx, event))
		}
	}

	var summary models.OrgSummary
	require.NoError(t, db.First(&summary, "organization_id = ?", "org-1").Error)
	require.EqualValues(t, 2, summary.ActiveProjects)
	require.EqualValues(t, 1, summary.ArchivedProjects)
}

func TestEventProcessorSweepAndRebuild(t *testing.T) {
	db := newTestDB(t)
	store := eventstore.NewGormEventStore(db)
	cfg := config.Config{}
	ctx := context.Background()

	appendProjectHistory(t, store)

	template := domain.NewTemplateAggregate("tmpl-1")
	require.NoError(t, template.Register("go-service", "", "github.com/org/tmpl", "user-1"))
	require.NoError(t, template.Publish("1.0.0", "abc", "user-1"))
	_, err := store.Append(ctx, template.GetType(), template.GetID(), 0, template.Uncommitted())
	require.NoError(t, err)

	processor := NewEventProcessor(
		db,
		NewProjectProjector(db, store, nil, nil, cfg),
		NewTemplateProjector(db, store, nil, cfg),
		NewProvisioningProjector(db, store, nil, cfg),
		NewAnalysisProjector(db, store, nil, nil, cfg),
		2, // small batch forces multiple sweeps
		0,
	)

	for i := 0; i < 5; i++ {
		require.NoError(t, processor.ProcessBatch(ctx))
	}

	var project models.Project
	require.NoError(t, db.First(&project, "project_id = ?", "proj-1").Error)
	require.Equal(t, 3, project.LastVersion)

	var tmpl models.Template
	require.NoError(t, db.First(&tmpl, "template_id = ?", "tmpl-1").Error)
	require.Equal(t, "1.0.0", tmpl.SemVer)
	require.Equal(t, domain.TemplateStatusPublished, tmpl.Status)

	// A full rebuild from version 1 lands on the same rows
	require.NoError(t, processor.Rebuild(ctx))

	var rebuiltProject models.Project
	require.NoError(t, db.First(&rebuiltProject, "project_id = ?", "proj-1").Error)
	require.Equal(t, project.Name, rebuiltProject.Name)
	require.Equal(t, project.Status, rebuiltProject.Status)
	require.Equal(t, project.LastVersion, rebuiltProject.LastVersion)

	var rebuiltTemplate models.Template
	require.NoError(t, db.First(&rebuiltTemplate, "template_id = ?", "tmpl-1").Error)
	require.Equal(t, tmpl.SemVer, rebuiltTemplate.SemVer)
	require.Equal(t, tmpl.Status, rebuiltTemplate.Status)
}
