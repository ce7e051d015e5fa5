// Package purge removes every user along with their documents, uploaded files & SOS alerts.
package purge

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Daskott/raksha/server/documents"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/models"
	"github.com/pkg/errors"
)

var logg = logger.NewLogger()

type FileRemover interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ref string) error
}

type Summary struct {
	Users          int64
	Documents      int64
	SOSAlerts      int64
	FilesRemoved   int
	OrphansRemoved int
}

func (s Summary) Empty() bool {
	return s.Users == 0 && s.Documents == 0 && s.SOSAlerts == 0
}

// Count returns how many records a purge would remove
func Count(ctx context.Context) (Summary, error) {
	summary := Summary{}
	var err error

	if summary.Users, err = models.CountUsers(ctx); err != nil {
		return summary, errors.Wrap(err, "count users")
	}

	if summary.Documents, err = models.CountDocuments(ctx); err != nil {
		return summary, errors.Wrap(err, "count documents")
	}

	if summary.SOSAlerts, err = models.CountSOSAlerts(ctx); err != nil {
		return summary, errors.Wrap(err, "count sos alerts")
	}

	return summary, nil
}

// Run deletes SOS alerts, then documents & their files, then users. Document
// files left in the store without a document are removed too. A file that
// can't be removed is logged & skipped.
func Run(ctx context.Context, files FileRemover) (Summary, error) {
	summary := Summary{}
	var err error

	if summary.SOSAlerts, err = models.DeleteAllSOSAlerts(ctx); err != nil {
		return summary, errors.Wrap(err, "delete sos alerts")
	}
	logg.Infof("Deleted %v SOS alerts", summary.SOSAlerts)

	documents, err := models.AllDocuments(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "load documents")
	}

	referenced := map[string]bool{}
	for _, document := range documents {
		referenced[document.FilePath] = true
		if err := files.Delete(ctx, document.FilePath); err != nil {
			logg.Warnf("Could not delete file %v: %v", document.FileName, err)
			continue
		}
		summary.FilesRemoved++
	}

	if summary.OrphansRemoved, err = removeOrphans(ctx, files, referenced); err != nil {
		return summary, errors.Wrap(err, "remove orphaned files")
	}

	if summary.Documents, err = models.DeleteAllDocuments(ctx); err != nil {
		return summary, errors.Wrap(err, "delete documents")
	}
	logg.Infof("Deleted %v documents, %v files & %v orphaned files", summary.Documents, summary.FilesRemoved, summary.OrphansRemoved)

	if summary.Users, err = models.DeleteAllUsers(ctx); err != nil {
		return summary, errors.Wrap(err, "delete users")
	}
	logg.Infof("Deleted %v users", summary.Users)

	return summary, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// removeOrphans deletes stored document files that no document referenced
func removeOrphans(ctx context.Context, files FileRemover, referenced map[string]bool) (int, error) {
	refs, err := files.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, ref := range refs {
		if referenced[ref] || !isDocumentFile(ref) {
			continue
		}

		if err := files.Delete(ctx, ref); err != nil {
			logg.Warnf("Could not delete orphaned file %v: %v", filepath.Base(ref), err)
			continue
		}
		logg.Infof("Cleaned up orphaned file %v", filepath.Base(ref))
		removed++
	}

	return removed, nil
}

// isDocumentFile keeps the sweep away from anything the document service didn't store
func isDocumentFile(ref string) bool {
	return strings.HasPrefix(filepath.Base(ref), documents.FILE_NAME_PREFIX)
}
