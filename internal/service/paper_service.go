package service

import (
	"studyshare_backend/internal/model"
	"studyshare_backend/internal/repository"
	"studyshare_backend/internal/util"
	"studyshare_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaperService 试卷的查询与管理。生成流程见 GenerationService。
type PaperService struct {
	Repo         *repository.PaperRepository
	CourseRepo   *repository.CourseRepository
	Interactions *repository.InteractionRepository
}

func NewPaperService(
	repo *repository.PaperRepository,
	courseRepo *repository.CourseRepository,
	interactions *repository.InteractionRepository,
) *PaperService {
	return &PaperService{
		Repo:         repo,
		CourseRepo:   courseRepo,
		Interactions: interactions,
	}
}

// PaperDetail 试卷详情，含题目列表
type PaperDetail struct {
	*model.Paper
	Questions []model.PaperQuestion `json:"questions"`
}

func (s *PaperService) findVisible(id, viewerID uint, role model.UserRole) (*model.Paper, error) {
	paper, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPaperNotFound
		}
		return nil, err
	}
	if !paper.IsPublic && paper.CreatedBy != viewerID && role != model.RoleAdmin {
		return nil, util.ErrPermissionDenied
	}
	return paper, nil
}

// Get 查看试卷详情。非创建者查看时隐藏答案与解析。
func (s *PaperService) Get(id, viewerID uint, role model.UserRole) (*PaperDetail, error) {
	paper, err := s.findVisible(id, viewerID, role)
	if err != nil {
		return nil, err
	}

	questions, err := s.Repo.ListQuestions(id)
	if err != nil {
		return nil, err
	}
	if paper.CreatedBy != viewerID && role != model.RoleAdmin {
		for i := range questions {
			questions[i].CorrectAnswer = ""
			questions[i].Explanation = ""
		}
	}

	if err := s.Repo.IncrementViewCount(id); err != nil {
		logger.Log.Warn("浏览数更新失败", zap.Uint("paperId", id), zap.Error(err))
	}
	return &PaperDetail{Paper: paper, Questions: questions}, nil
}

// Download 导出完整试卷（含答案）并记录下载
func (s *PaperService) Download(id, userID uint, role model.UserRole, ip, userAgent string) (*PaperDetail, error) {
	paper, err := s.findVisible(id, userID, role)
	if err != nil {
		return nil, err
	}

	questions, err := s.Repo.ListQuestions(id)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.IncrementDownloadCount(id); err != nil {
		logger.Log.Warn("下载数更新失败", zap.Uint("paperId", id), zap.Error(err))
	}
	if err := s.Interactions.CreateDownloadLog(&model.DownloadLog{
		UserID:    userID,
		ItemType:  model.ItemTypePaper,
		ItemID:    id,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		logger.Log.Warn("下载日志写入失败", zap.Uint("paperId", id), zap.Error(err))
	}

	return &PaperDetail{Paper: paper, Questions: questions}, nil
}

type UpdatePaperRequest struct {
	Title         string `json:"title" binding:"omitempty,max=255"`
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimatedTime" binding:"omitempty,min=0"`
	IsPublic      *bool  `json:"isPublic"`
}

func (s *PaperService) Update(id, userID uint, role model.UserRole, req UpdatePaperRequest) (*model.Paper, error) {
	paper, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPaperNotFound
		}
		return nil, err
	}
	if paper.CreatedBy != userID && role != model.RoleAdmin {
		return nil, util.ErrPermissionDenied
	}

	if req.Title != "" {
		paper.Title = req.Title
	}
	if req.Description != "" {
		paper.Description = req.Description
	}
	if req.EstimatedTime > 0 {
		paper.EstimatedTime = req.EstimatedTime
	}
	if req.IsPublic != nil {
		paper.IsPublic = *req.IsPublic
	}

	if err := s.Repo.Update(paper); err != nil {
		return nil, err
	}
	return paper, nil
}

func (s *PaperService) Delete(id, userID uint, role model.UserRole) error {
	paper, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrPaperNotFound
		}
		return err
	}
	if paper.CreatedBy != userID && role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}
	return s.Repo.Delete(id)
}

func (s *PaperService) ListByCourse(courseID uint, page, limit int, viewerID uint) ([]model.Paper, int64, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, util.ErrCourseNotFound
		}
		return nil, 0, err
	}
	return s.Repo.ListByCourse(courseID, page, limit, viewerID)
}

func (s *PaperService) ListPopular(limit int, courseID uint) ([]model.Paper, error) {
	return s.Repo.ListPopular(limit, courseID)
}

// ToggleLike 点赞/取消点赞，返回操作后的状态
func (s *PaperService) ToggleLike(userID, paperID uint) (bool, error) {
	if _, err := s.Repo.FindByID(paperID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, util.ErrPaperNotFound
		}
		return false, err
	}

	_, err := s.Interactions.FindFavorite(userID, model.ItemTypePaper, paperID)
	switch {
	case err == nil:
		if err := s.Interactions.DeleteFavorite(userID, model.ItemTypePaper, paperID); err != nil {
			return false, err
		}
		return false, s.Repo.AddLikeCount(paperID, -1)
	case err == gorm.ErrRecordNotFound:
		if err := s.Interactions.CreateFavorite(&model.UserFavorite{
			UserID:   userID,
			ItemType: model.ItemTypePaper,
			ItemID:   paperID,
		}); err != nil {
			return false, err
		}
		return true, s.Repo.AddLikeCount(paperID, 1)
	default:
		return false, err
	}
}

// Rate 评分（1-5），重复评分覆盖旧值
func (s *PaperService) Rate(userID, paperID uint, rating int, comment string) (*repository.RatingSummary, error) {
	if _, err := s.Repo.FindByID(paperID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrPaperNotFound
		}
		return nil, err
	}

	if err := s.Interactions.UpsertRating(&model.UserRating{
		UserID:   userID,
		ItemType: model.ItemTypePaper,
		ItemID:   paperID,
		Rating:   rating,
		Comment:  comment,
	}); err != nil {
		return nil, err
	}
	return s.Interactions.SummarizeRatings(model.ItemTypePaper, paperID)
}
