package service

import (
	"studyshare_backend/internal/model"
	"studyshare_backend/internal/repository"
	"studyshare_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	Repo *repository.CourseRepository
}

func NewCourseService(repo *repository.CourseRepository) *CourseService {
	return &CourseService{Repo: repo}
}

type CreateCourseRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Code        string `json:"code" binding:"required,max=50"`
	Description string `json:"description"`
	Department  string `json:"department" binding:"omitempty,max=100"`
	Semester    string `json:"semester" binding:"omitempty,max=50"`
}

func (s *CourseService) Create(userID uint, req CreateCourseRequest) (*model.Course, error) {
	if _, err := s.Repo.FindByCode(req.Code); err == nil {
		return nil, util.ErrCourseCodeTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	course := &model.Course{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Department:  req.Department,
		Semester:    req.Semester,
		CreatedBy:   userID,
	}
	if err := s.Repo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	course, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(page, limit int, department, semester, keyword string) ([]repository.CourseListRow, int64, error) {
	return s.Repo.List(page, limit, department, semester, keyword)
}
