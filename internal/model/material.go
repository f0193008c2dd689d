package model

// FileStorage 按内容哈希去重的物理文件记录，多份资料可引用同一文件
type FileStorage struct {
	UUIDBase
	FileHash       string `gorm:"size:64;unique;not null" json:"fileHash"`
	FilePath       string `gorm:"size:500;not null" json:"filePath"`
	FileSize       int64  `gorm:"default:0" json:"fileSize"`
	MimeType       string `gorm:"size:100" json:"mimeType"`
	ReferenceCount int    `gorm:"default:1" json:"referenceCount"`
}

func (FileStorage) TableName() string {
	return "file_storage"
}

// swagger:model Material
type Material struct {
	BaseModel
	CourseID      uint    `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	UploadedBy    uint    `gorm:"index;type:bigint unsigned" json:"uploadedBy"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Description   string  `gorm:"type:text" json:"description"`
	Category      string  `gorm:"size:50;default:'lecture'" json:"category"`
	FileName      string  `gorm:"size:255;not null" json:"fileName"`
	FilePath      string  `gorm:"size:500;not null" json:"filePath"`
	FileHash      string  `gorm:"size:64;index" json:"-"`
	FileSize      int64   `gorm:"default:0" json:"fileSize"`
	MimeType      string  `gorm:"size:100" json:"mimeType"`
	VideoDuration float64 `gorm:"default:0" json:"videoDuration,omitempty"` // 秒，仅视频资料
	IsPublic      bool    `gorm:"default:true" json:"isPublic"`
	ViewCount     int     `gorm:"default:0" json:"viewCount"`
	DownloadCount int     `gorm:"default:0" json:"downloadCount"`
	LikeCount     int     `gorm:"default:0" json:"likeCount"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Material) TableName() string {
	return "materials"
}

// IsTextual 判断资料内容能否直接作为出题文本
func (m *Material) IsTextual() bool {
	switch m.MimeType {
	case "text/plain", "text/markdown", "text/csv":
		return true
	}
	return len(m.MimeType) > 5 && m.MimeType[:5] == "text/"
}
