package policy

import "github.com/moeryomenko/bumpmerge/internal/models"

// Files a dependency-bump commit is allowed to touch.
const (
	ManifestFile = "package.json"
	LockfileNPM  = "package-lock.json"
	LockfileYarn = "yarn.lock"
)

var allowedFiles = map[string]struct{}{
	ManifestFile: {},
	LockfileNPM:  {},
	LockfileYarn: {},
}

// ValidateScope reports whether every changed file is a known manifest or
// lockfile and every change is a plain modification. A file outside the
// allow-list, or an allowed file that was added, removed or renamed rather
// than modified, fails the whole commit.
func ValidateScope(files []models.ChangedFile) bool {
	for _, f := range files {
		if _, ok := allowedFiles[f.Name]; !ok {
			return false
		}
		if f.Status != models.StatusModified {
			return false
		}
	}
	return true
}
