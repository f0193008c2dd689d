package repository

import (
	"studyshare_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindByCode(code string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("code = ?", code).First(&course).Error
	return &course, err
}

// CourseListRow 课程列表行，附带资料数与试卷数
type CourseListRow struct {
	model.Course
	MaterialCount int64 `gorm:"column:material_count" json:"materialCount"`
	PaperCount    int64 `gorm:"column:paper_count" json:"paperCount"`
}

func (r *CourseRepository) List(page, limit int, department, semester, keyword string) ([]CourseListRow, int64, error) {
	var total int64
	query := r.DB.Model(&model.Course{})
	if department != "" {
		query = query.Where("department = ?", department)
	}
	if semester != "" {
		query = query.Where("semester = ?", semester)
	}
	if keyword != "" {
		query = query.Where("name LIKE ? OR code LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []CourseListRow
	offset := (page - 1) * limit
	err := query.
		Select("courses.*, " +
			"(SELECT COUNT(*) FROM materials m WHERE m.course_id = courses.id AND m.deleted_at IS NULL) AS material_count, " +
			"(SELECT COUNT(*) FROM generated_papers p WHERE p.course_id = courses.id AND p.deleted_at IS NULL) AS paper_count").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *CourseRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Course{}).Count(&total).Error
	return total, err
}
