// Package profile loads the applicant profile from disk. The profile is
// operator-maintained data, edited by hand and read on every attempt so
// changes land without a restart.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"job-autopilot/internal/domain/model"
	"job-autopilot/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*FileRepository)(nil)

type FileRepository struct {
	path string

	mu       sync.Mutex
	cached   *model.ApplicantProfile
	loadedAt time.Time
	modTime  time.Time
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(_ context.Context) (*model.ApplicantProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("profile file: %w", err)
	}
	if r.cached != nil && info.ModTime().Equal(r.modTime) {
		return r.cached, nil
	}

	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p model.ApplicantProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if p.FirstName == "" || p.Email == "" {
		return nil, fmt.Errorf("profile missing first_name or email")
	}

	r.cached = &p
	r.loadedAt = time.Now()
	r.modTime = info.ModTime()
	return r.cached, nil
}
