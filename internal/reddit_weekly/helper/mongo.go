package helper

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reddit-weekly/internal/reddit_weekly/model"
	"reddit-weekly/pkg/config"
)

const (
	runsCollection = "runs"
	connectTimeout = 10 * time.Second
)

// Stores holds the run history collections.
type Stores struct {
	Client *mongo.Client
	DB     *mongo.Database
	Runs   *mongo.Collection
}

// ConnectMongo connects, pings and ensures indexes.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*Stores, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := cli.Database(cfg.Database)
	s := &Stores{
		Client: cli,
		DB:     db,
		Runs:   db.Collection(runsCollection),
	}
	if err := ensureIndexes(ctx, s); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func ensureIndexes(ctx context.Context, s *Stores) error {
	_, err := s.Runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "community", Value: 1}, {Key: "section", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "finished_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create run indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Stores) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// SaveRun upserts the report of a published run. One entry is kept per
// community and week section, so reruns within a week replace it.
func (s *Stores) SaveRun(ctx context.Context, report *model.RunReport) error {
	_, err := s.Runs.ReplaceOne(ctx,
		RunFilter(report.Community, report.Section),
		report,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", report.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit reports, newest first.
func (s *Stores) RecentRuns(ctx context.Context, limit int) ([]model.RunReport, error) {
	cur, err := s.Runs.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "finished_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer func(cur *mongo.Cursor, ctx context.Context) {
		_ = cur.Close(ctx)
	}(cur, ctx)

	out := []model.RunReport{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return out, nil
}

// RunFilter selects the history entry of one community's week section.
func RunFilter(community, section string) bson.M {
	return bson.M{"community": community, "section": section}
}
