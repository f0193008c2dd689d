package repository

import (
	"encoding/json"
	"studyshare_backend/internal/model"

	"gorm.io/gorm"
)

type PaperRepository struct {
	DB *gorm.DB
}

func NewPaperRepository(db *gorm.DB) *PaperRepository {
	return &PaperRepository{DB: db}
}

func (r *PaperRepository) Create(p *model.Paper) error {
	return r.DB.Create(p).Error
}

func (r *PaperRepository) FindByID(id uint) (*model.Paper, error) {
	var p model.Paper
	err := r.DB.Preload("Course").First(&p, id).Error
	return &p, err
}

func (r *PaperRepository) Update(p *model.Paper) error {
	return r.DB.Save(p).Error
}

// UpdateGenerationState 只更新生成状态元数据列，后台轮询专用
func (r *PaperRepository) UpdateGenerationState(paperID uint, state model.GenerationState) error {
	return r.DB.Model(&model.Paper{}).Where("id = ?", paperID).
		UpdateColumn("generation_metadata", json.RawMessage(state.Encode())).Error
}

// Delete 删除试卷并级联删除题目
func (r *PaperRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&model.PaperQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Paper{}, id).Error
	})
}

// ReplaceQuestions 同一事务内先删后插，重复转换/重复轮询不会产生重复题目
func (r *PaperRepository) ReplaceQuestions(paperID uint, questions []model.PaperQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("paper_id = ?", paperID).Delete(&model.PaperQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].PaperID = paperID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PaperRepository) ListQuestions(paperID uint) ([]model.PaperQuestion, error) {
	var qs []model.PaperQuestion
	err := r.DB.Where("paper_id = ?", paperID).Order("question_number asc").Find(&qs).Error
	return qs, err
}

func (r *PaperRepository) CountQuestions(paperID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.PaperQuestion{}).Where("paper_id = ?", paperID).Count(&total).Error
	return total, err
}

func (r *PaperRepository) ListByCourse(courseID uint, page, limit int, viewerID uint) ([]model.Paper, int64, error) {
	var ps []model.Paper
	var total int64

	query := r.DB.Model(&model.Paper{}).
		Where("course_id = ?", courseID).
		Where("is_public = ? OR created_by = ?", true, viewerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&ps).Error
	return ps, total, err
}

func (r *PaperRepository) ListPopular(limit int, courseID uint) ([]model.Paper, error) {
	var ps []model.Paper
	query := r.DB.Model(&model.Paper{}).Where("is_public = ?", true)
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	err := query.Preload("Course").
		Order("(download_count * 0.4 + like_count * 0.3 + view_count * 0.3) desc").
		Limit(limit).Find(&ps).Error
	return ps, err
}

func (r *PaperRepository) IncrementViewCount(id uint) error {
	return r.DB.Model(&model.Paper{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *PaperRepository) IncrementDownloadCount(id uint) error {
	return r.DB.Model(&model.Paper{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *PaperRepository) AddLikeCount(id uint, delta int) error {
	return r.DB.Model(&model.Paper{}).Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func (r *PaperRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Paper{}).Count(&total).Error
	return total, err
}
