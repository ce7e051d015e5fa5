package server

import (
	"fmt"
	"path"

	"github.com/Daskott/raksha/server/gstorage"
	"github.com/Daskott/raksha/server/models"
	"github.com/Daskott/raksha/shared"
	"github.com/Daskott/raksha/utils"
	"github.com/go-co-op/gocron"
)

const BACKUP_SQLITE_DB_TAG = "backupSqliteDb"

// backupSqliteDbJob uploads the sqlite db file to '<bucket>/<prefix>/raksha.db'
func backupSqliteDbJob(gStorage *gstorage.GStorage, storageConfig shared.StorageConfig, dbRootDir string) func() error {
	return func() error {
		dbFilePath, err := models.DbFilePath(dbRootDir)
		if err != nil {
			return err
		}

		exists, err := utils.FileExist(dbFilePath)
		if err != nil {
			return err
		}
		if !exists {
			logg.Warnf("No sqlite db at %v to back up", dbFilePath)
			return nil
		}

		object := path.Join(storageConfig.Prefix, models.DB_NAME)
		err = gStorage.UploadFile(storageConfig.Bucket, object, dbFilePath)
		if err != nil {
			return fmt.Errorf("backupSqliteDb: %v", err)
		}

		logg.Infof("Backed up sqlite db to gs://%v/%v", storageConfig.Bucket, object)
		return nil
	}
}

func scheduleJobs(cronScheduler *gocron.Scheduler, backupSchedule string, backupDb func() error) error {
	_, err := cronScheduler.Cron(backupSchedule).Tag(BACKUP_SQLITE_DB_TAG).Do(func() {
		if err := backupDb(); err != nil {
			logg.Error(err)
		}
	})

	return err
}
