package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"studyshare_backend/internal/model"
	"studyshare_backend/internal/repository"
	"studyshare_backend/internal/util"
	"studyshare_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 出题内容提取单份资料最多读取的字节数
const maxExtractBytes = 512 * 1024

// 资料上传允许的 MIME 类型
var allowedMaterialTypes = []string{
	"text/",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.ms-powerpoint",
	"application/zip",
	"image/",
	"video/",
}

type MaterialService struct {
	Repo         *repository.MaterialRepository
	CourseRepo   *repository.CourseRepository
	Interactions *repository.InteractionRepository
	Storage      *StorageService
}

func NewMaterialService(
	repo *repository.MaterialRepository,
	courseRepo *repository.CourseRepository,
	interactions *repository.InteractionRepository,
	storage *StorageService,
) *MaterialService {
	return &MaterialService{
		Repo:         repo,
		CourseRepo:   courseRepo,
		Interactions: interactions,
		Storage:      storage,
	}
}

type UploadMaterialRequest struct {
	CourseID    uint   `form:"courseId" binding:"required"`
	Title       string `form:"title" binding:"required,max=255"`
	Description string `form:"description"`
	Category    string `form:"category" binding:"omitempty,oneof=lecture exercise exam reference video"`
	IsPublic    *bool  `form:"isPublic"`
}

// Upload 上传课程资料。同内容文件按 sha256 去重，只存一份物理文件，
// file_storage 记录引用数。
func (s *MaterialService) Upload(ctx context.Context, userID uint, req UploadMaterialRequest, header *multipart.FileHeader) (*model.Material, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	mimeType, err := util.ValidateMimeType(bytes.NewReader(data), allowedMaterialTypes)
	if err != nil {
		return nil, err
	}

	hash := util.HashBytes(data)
	ext := filepath.Ext(header.Filename)
	storageKey := "materials/" + hash + ext

	existing, err := s.Repo.FindFileByHash(hash)
	switch {
	case err == nil:
		// 内容已存在，只加引用
		if err := s.Repo.IncrementFileRef(hash); err != nil {
			return nil, err
		}
		storageKey = existing.FilePath
	case err == gorm.ErrRecordNotFound:
		if _, err := s.Storage.Upload(ctx, storageKey, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
			return nil, err
		}
		if err := s.Repo.CreateFile(&model.FileStorage{
			FileHash:       hash,
			FilePath:       storageKey,
			FileSize:       int64(len(data)),
			MimeType:       mimeType,
			ReferenceCount: 1,
		}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	material := &model.Material{
		CourseID:    req.CourseID,
		UploadedBy:  userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		FileName:    header.Filename,
		FilePath:    storageKey,
		FileHash:    hash,
		FileSize:    int64(len(data)),
		MimeType:    mimeType,
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
	}
	if material.Category == "" {
		material.Category = "lecture"
	}

	if util.IsVideo(mimeType) {
		if duration, err := s.probeVideoDuration(data, ext); err == nil {
			material.VideoDuration = duration
		} else {
			logger.Log.Warn("视频时长探测失败", zap.String("file", header.Filename), zap.Error(err))
		}
	}

	if err := s.Repo.Create(material); err != nil {
		return nil, err
	}
	return material, nil
}

// probeVideoDuration ffprobe 只认本地路径，先落临时文件再探测
func (s *MaterialService) probeVideoDuration(data []byte, ext string) (float64, error) {
	tmp, err := os.CreateTemp("", "probe-*"+ext)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, err
	}
	tmp.Close()

	info, err := util.GetVideoInfo(tmp.Name())
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

func (s *MaterialService) Get(id, viewerID uint, role model.UserRole) (*model.Material, error) {
	material, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrMaterialNotFound
		}
		return nil, err
	}
	if !material.IsPublic && material.UploadedBy != viewerID && role != model.RoleAdmin {
		return nil, util.ErrPermissionDenied
	}

	if err := s.Repo.IncrementViewCount(id); err != nil {
		logger.Log.Warn("浏览数更新失败", zap.Uint("materialId", id), zap.Error(err))
	}
	return material, nil
}

// Download 记录下载日志并返回访问地址
func (s *MaterialService) Download(id, userID uint, role model.UserRole, ip, userAgent string) (*model.Material, string, error) {
	material, err := s.Get(id, userID, role)
	if err != nil {
		return nil, "", err
	}

	if err := s.Repo.IncrementDownloadCount(id); err != nil {
		logger.Log.Warn("下载数更新失败", zap.Uint("materialId", id), zap.Error(err))
	}
	if err := s.Interactions.CreateDownloadLog(&model.DownloadLog{
		UserID:    userID,
		ItemType:  model.ItemTypeMaterial,
		ItemID:    id,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		logger.Log.Warn("下载日志写入失败", zap.Uint("materialId", id), zap.Error(err))
	}

	return material, s.Storage.GetURL(material.FilePath), nil
}

type UpdateMaterialRequest struct {
	Title       string `json:"title" binding:"omitempty,max=255"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"omitempty,oneof=lecture exercise exam reference video"`
	IsPublic    *bool  `json:"isPublic"`
}

func (s *MaterialService) Update(id, userID uint, role model.UserRole, req UpdateMaterialRequest) (*model.Material, error) {
	material, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrMaterialNotFound
		}
		return nil, err
	}
	if material.UploadedBy != userID && role != model.RoleAdmin {
		return nil, util.ErrPermissionDenied
	}

	if req.Title != "" {
		material.Title = req.Title
	}
	if req.Description != "" {
		material.Description = req.Description
	}
	if req.Category != "" {
		material.Category = req.Category
	}
	if req.IsPublic != nil {
		material.IsPublic = *req.IsPublic
	}

	if err := s.Repo.Update(material); err != nil {
		return nil, err
	}
	return material, nil
}

// Delete 删除资料记录，物理文件引用归零时一并清理
func (s *MaterialService) Delete(ctx context.Context, id, userID uint, role model.UserRole) error {
	material, err := s.Repo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrMaterialNotFound
		}
		return err
	}
	if material.UploadedBy != userID && role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}

	if err := s.Repo.Delete(id); err != nil {
		return err
	}

	fs, err := s.Repo.DecrementFileRef(material.FileHash)
	if err != nil {
		logger.Log.Warn("文件引用数更新失败", zap.String("hash", material.FileHash), zap.Error(err))
		return nil
	}
	if fs.ReferenceCount <= 0 {
		if err := s.Storage.Delete(ctx, fs.FilePath); err != nil {
			logger.Log.Warn("物理文件删除失败", zap.String("path", fs.FilePath), zap.Error(err))
		}
	}
	return nil
}

// ReadContent 读取资料正文供出题使用，超长内容截断
func (s *MaterialService) ReadContent(m *model.Material) ([]byte, error) {
	rc, err := s.Storage.Download(context.Background(), m.FilePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxExtractBytes))
}

func (s *MaterialService) ListByCourse(courseID uint, page, limit int, category, sortBy string) ([]model.Material, int64, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, util.ErrCourseNotFound
		}
		return nil, 0, err
	}
	return s.Repo.ListByCourse(courseID, page, limit, category, sortBy)
}

func (s *MaterialService) Search(keyword string, page, limit int) ([]model.Material, int64, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Material{}, 0, nil
	}
	return s.Repo.Search(keyword, page, limit)
}

func (s *MaterialService) ListPopular(limit int, courseID uint) ([]model.Material, error) {
	return s.Repo.ListPopular(limit, courseID)
}

// ToggleLike 点赞/取消点赞，返回操作后的状态
func (s *MaterialService) ToggleLike(userID, materialID uint) (bool, error) {
	if _, err := s.Repo.FindByID(materialID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, util.ErrMaterialNotFound
		}
		return false, err
	}

	_, err := s.Interactions.FindFavorite(userID, model.ItemTypeMaterial, materialID)
	switch {
	case err == nil:
		if err := s.Interactions.DeleteFavorite(userID, model.ItemTypeMaterial, materialID); err != nil {
			return false, err
		}
		return false, s.Repo.DB.Model(&model.Material{}).Where("id = ?", materialID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error
	case err == gorm.ErrRecordNotFound:
		if err := s.Interactions.CreateFavorite(&model.UserFavorite{
			UserID:   userID,
			ItemType: model.ItemTypeMaterial,
			ItemID:   materialID,
		}); err != nil {
			return false, err
		}
		return true, s.Repo.DB.Model(&model.Material{}).Where("id = ?", materialID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	default:
		return false, err
	}
}

// Rate 评分（1-5），重复评分覆盖旧值
func (s *MaterialService) Rate(userID, materialID uint, rating int, comment string) (*repository.RatingSummary, error) {
	if _, err := s.Repo.FindByID(materialID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrMaterialNotFound
		}
		return nil, err
	}

	if err := s.Interactions.UpsertRating(&model.UserRating{
		UserID:   userID,
		ItemType: model.ItemTypeMaterial,
		ItemID:   materialID,
		Rating:   rating,
		Comment:  comment,
	}); err != nil {
		return nil, err
	}
	return s.Interactions.SummarizeRatings(model.ItemTypeMaterial, materialID)
}

func (s *MaterialService) RatingSummary(materialID uint) (*repository.RatingSummary, error) {
	return s.Interactions.SummarizeRatings(model.ItemTypeMaterial, materialID)
}
