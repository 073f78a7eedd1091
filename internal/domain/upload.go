package domain

import "time"

type Upload struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID   string    `json:"ownerId" gorm:"size:64;index"`
	Filename  string    `json:"filename" gorm:"size:255;not null"`
	MimeType  string    `json:"mimeType" gorm:"size:100;not null"`
	Size      int64     `json:"size" gorm:"not null"`
	URL       string    `json:"url" gorm:"size:512;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
