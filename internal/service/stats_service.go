package service

import (
	"studyshare_backend/internal/repository"
)

// PlatformStats 平台总量统计
type PlatformStats struct {
	Users     int64 `json:"users"`
	Courses   int64 `json:"courses"`
	Materials int64 `json:"materials"`
	Papers    int64 `json:"papers"`
}

type StatsService struct {
	UserRepo     *repository.UserRepository
	CourseRepo   *repository.CourseRepository
	MaterialRepo *repository.MaterialRepository
	PaperRepo    *repository.PaperRepository
}

func NewStatsService(
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	materialRepo *repository.MaterialRepository,
	paperRepo *repository.PaperRepository,
) *StatsService {
	return &StatsService{
		UserRepo:     userRepo,
		CourseRepo:   courseRepo,
		MaterialRepo: materialRepo,
		PaperRepo:    paperRepo,
	}
}

func (s *StatsService) Overview() (*PlatformStats, error) {
	users, err := s.UserRepo.Count()
	if err != nil {
		return nil, err
	}
	courses, err := s.CourseRepo.Count()
	if err != nil {
		return nil, err
	}
	materials, err := s.MaterialRepo.Count()
	if err != nil {
		return nil, err
	}
	papers, err := s.PaperRepo.Count()
	if err != nil {
		return nil, err
	}

	return &PlatformStats{
		Users:     users,
		Courses:   courses,
		Materials: materials,
		Papers:    papers,
	}, nil
}
