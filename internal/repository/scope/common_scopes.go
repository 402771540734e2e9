package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func OrderByStageDesc(db *gorm.DB) *gorm.DB {
	return db.Order("stage DESC")
}

func OrderBySlot(db *gorm.DB) *gorm.DB {
	return db.Order("slot ASC")
}
