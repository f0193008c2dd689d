package database

import (
	"fmt"
	"log"
	"studyshare_backend/internal/config"
	"studyshare_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.FileStorage{},
		&model.Material{},
		&model.Paper{},
		&model.PaperQuestion{},
		&model.UserFavorite{},
		&model.UserRating{},
		&model.DownloadLog{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认课程（空库时便于前端联调）
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count == 0 {
		defaultCourses := []model.Course{
			{Name: "高等数学", Code: "MATH101", Description: "一元微积分与级数", Department: "数学学院", Semester: "2024春"},
			{Name: "数据结构", Code: "CS201", Description: "线性表、树、图与排序", Department: "计算机学院", Semester: "2024春"},
			{Name: "大学英语", Code: "ENG103", Description: "阅读与学术写作", Department: "外国语学院", Semester: "2024春"},
		}
		for _, c := range defaultCourses {
			db.Create(&c)
		}
	}

	return db, nil
}
