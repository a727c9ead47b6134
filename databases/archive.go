package databases

// go generate: mockery --name ArchiveDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/causelist-api/models"
)

const archiveName = "hearingarchives"

// ArchiveDatabase contains the methods to use with the completed hearings database
type ArchiveDatabase interface {
	Archive(ctx context.Context, hearing models.Hearing) error
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Hearing, error)
	List(ctx context.Context, limit, page int) ([]models.Hearing, error)
}

type archiveDatabase struct {
	db DatabaseHelper
}

// NewArchiveDatabase initializes a new instance of archive database with the provided db connection
func NewArchiveDatabase(db DatabaseHelper) ArchiveDatabase {
	return &archiveDatabase{
		db: db,
	}
}

// Archive upserts the completed hearing keyed by its id, so a retried write is harmless
func (a *archiveDatabase) Archive(ctx context.Context, hearing models.Hearing) error {
	return a.db.Collection(archiveName).ReplaceOne(ctx,
		bson.M{"_id": hearing.ID},
		hearing,
		options.Replace().SetUpsert(true),
	)
}

func (a *archiveDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Hearing, error) {
	hearing := &models.Hearing{}
	err := a.db.Collection(archiveName).FindOne(ctx, filter, opts...).Decode(&hearing)
	if err != nil {
		return nil, err
	}
	return hearing, nil
}

// List returns one page of archived hearings, most recently completed first
func (a *archiveDatabase) List(ctx context.Context, limit, page int) ([]models.Hearing, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	var hearings []models.Hearing
	curr, err := a.db.Collection(archiveName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	if err := curr.All(ctx, &hearings); err != nil {
		return nil, err
	}
	return hearings, nil
}
