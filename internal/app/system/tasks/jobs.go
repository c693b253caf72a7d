// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/codehaven/codehaven/internal/app/store/file"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob removes expired OAuth state tokens. The TTL index
// handles this on real MongoDB; the job covers document stores that lack
// TTL support.
func OAuthStateCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("oauth_states")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// FileCountReconcileJob recomputes each project's cached file count from the
// files collection. Counts can drift when a process dies between a file
// mutation and the counter update.
func FileCountReconcileJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "file-count-reconcile",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			projects := db.Collection("projects")
			files := db.Collection("files")

			cur, err := projects.Find(ctx, bson.M{})
			if err != nil {
				return err
			}
			defer cur.Close(ctx)

			var fixed int64
			for cur.Next(ctx) {
				var p struct {
					ID        interface{} `bson:"_id"`
					FileCount int64       `bson:"file_count"`
				}
				if err := cur.Decode(&p); err != nil {
					return err
				}
				actual, err := files.CountDocuments(ctx, bson.M{
					"project_id": p.ID,
					"type":       "file",
				})
				if err != nil {
					return err
				}
				if actual == p.FileCount {
					continue
				}
				if _, err := projects.UpdateOne(ctx, bson.M{"_id": p.ID},
					bson.M{"$set": bson.M{"file_count": actual}}); err != nil {
					return err
				}
				fixed++
			}
			if err := cur.Err(); err != nil {
				return err
			}
			if fixed > 0 {
				logger.Info("reconciled project file counts",
					zap.Int64("projects_fixed", fixed))
			}
			return nil
		},
	}
}

// StaleSyncingSweepJob demotes files stuck in the syncing state to error.
// A file left syncing for this long means the process died between the
// local write and the remote mirror; marking it error makes the condition
// visible so a later write or manual retry can clear it.
func StaleSyncingSweepJob(db *mongo.Database, logger *zap.Logger, staleAfter time.Duration) Job {
	files := file.New(db)
	return Job{
		Name:     "stale-syncing-sweep",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			demoted, err := files.DemoteStaleSyncing(ctx, time.Now().Add(-staleAfter))
			if err != nil {
				return err
			}
			if demoted > 0 {
				logger.Warn("demoted stale syncing files",
					zap.Int64("count", demoted),
					zap.Duration("stale_after", staleAfter))
			}
			return nil
		},
	}
}
