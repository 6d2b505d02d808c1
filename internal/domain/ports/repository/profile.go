package repository

import (
	"context"

	"job-autopilot/internal/domain/model"
)

// ProfileRepository loads the applicant profile. Read-only from the
// orchestrator's perspective.
type ProfileRepository interface {
	Load(ctx context.Context) (*model.ApplicantProfile, error)
}
