package app

import (
	"gorm.io/gorm"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/repos"
)

type Repos struct {
	Project  repos.ProjectRepo
	Track    repos.TrackRepo
	Segment  repos.SegmentRepo
	Revision repos.RevisionRepo
	Asset    repos.AssetRepo
	Keyframe repos.KeyframeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:  repos.NewProjectRepo(db, log),
		Track:    repos.NewTrackRepo(db, log),
		Segment:  repos.NewSegmentRepo(db, log),
		Revision: repos.NewRevisionRepo(db, log),
		Asset:    repos.NewAssetRepo(db, log),
		Keyframe: repos.NewKeyframeRepo(db, log),
	}
}
