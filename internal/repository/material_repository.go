package repository

import (
	"studyshare_backend/internal/model"

	"gorm.io/gorm"
)

type MaterialRepository struct {
	DB *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{DB: db}
}

func (r *MaterialRepository) Create(m *model.Material) error {
	return r.DB.Create(m).Error
}

func (r *MaterialRepository) FindByID(id uint) (*model.Material, error) {
	var m model.Material
	err := r.DB.Preload("Course").First(&m, id).Error
	return &m, err
}

// FindByIDsAndCourse 按ID集合查询并限定课程，供生成前校验资料归属
func (r *MaterialRepository) FindByIDsAndCourse(ids []uint, courseID uint) ([]model.Material, error) {
	var ms []model.Material
	err := r.DB.Where("id IN ? AND course_id = ?", ids, courseID).Find(&ms).Error
	return ms, err
}

func (r *MaterialRepository) FindByCourseAndFileName(courseID uint, fileName string) (*model.Material, error) {
	var m model.Material
	err := r.DB.Where("course_id = ? AND file_name = ?", courseID, fileName).First(&m).Error
	return &m, err
}

func (r *MaterialRepository) ListByCourse(courseID uint, page, limit int, category, sortBy string) ([]model.Material, int64, error) {
	var ms []model.Material
	var total int64

	query := r.DB.Model(&model.Material{}).Where("course_id = ?", courseID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	switch sortBy {
	case "downloads":
		order = "download_count desc"
	case "likes":
		order = "like_count desc"
	case "name":
		order = "title asc"
	}

	offset := (page - 1) * limit
	err := query.Order(order).Offset(offset).Limit(limit).Find(&ms).Error
	return ms, total, err
}

func (r *MaterialRepository) Search(keyword string, page, limit int) ([]model.Material, int64, error) {
	var ms []model.Material
	var total int64

	query := r.DB.Model(&model.Material{}).
		Where("is_public = ?", true).
		Where("title LIKE ? OR description LIKE ? OR file_name LIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Course").Order("created_at desc").Offset(offset).Limit(limit).Find(&ms).Error
	return ms, total, err
}

func (r *MaterialRepository) ListPopular(limit int, courseID uint) ([]model.Material, error) {
	var ms []model.Material
	query := r.DB.Model(&model.Material{}).Where("is_public = ?", true)
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	err := query.
		Order("(download_count * 0.5 + like_count * 0.3 + view_count * 0.2) desc").
		Limit(limit).Find(&ms).Error
	return ms, err
}

func (r *MaterialRepository) Update(m *model.Material) error {
	return r.DB.Save(m).Error
}

func (r *MaterialRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Material{}, id).Error
}

func (r *MaterialRepository) IncrementViewCount(id uint) error {
	return r.DB.Model(&model.Material{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *MaterialRepository) IncrementDownloadCount(id uint) error {
	return r.DB.Model(&model.Material{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *MaterialRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Material{}).Count(&total).Error
	return total, err
}

// 物理文件去重相关

func (r *MaterialRepository) FindFileByHash(hash string) (*model.FileStorage, error) {
	var fs model.FileStorage
	err := r.DB.Where("file_hash = ?", hash).First(&fs).Error
	return &fs, err
}

func (r *MaterialRepository) CreateFile(fs *model.FileStorage) error {
	return r.DB.Create(fs).Error
}

func (r *MaterialRepository) IncrementFileRef(hash string) error {
	return r.DB.Model(&model.FileStorage{}).Where("file_hash = ?", hash).
		UpdateColumn("reference_count", gorm.Expr("reference_count + 1")).Error
}

// DecrementFileRef 引用数减一，归零时返回记录供调用方删除物理文件
func (r *MaterialRepository) DecrementFileRef(hash string) (*model.FileStorage, error) {
	var fs model.FileStorage
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_hash = ?", hash).First(&fs).Error; err != nil {
			return err
		}
		fs.ReferenceCount--
		if fs.ReferenceCount <= 0 {
			return tx.Delete(&fs).Error
		}
		return tx.Save(&fs).Error
	})
	if err != nil {
		return nil, err
	}
	return &fs, nil
}
