package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

// Address is embedded in orders and stored per customer. ZipCode follows the
// Brazilian CEP format when Country is BR or empty.
type Address struct {
	Street       string `json:"street" gorm:"size:255" validate:"required,max=255"`
	Number       string `json:"number" gorm:"size:20" validate:"required,max=20"`
	Complement   string `json:"complement,omitempty" gorm:"size:255" validate:"max=255"`
	Neighborhood string `json:"neighborhood" gorm:"size:120" validate:"required,max=120"`
	City         string `json:"city" gorm:"size:120" validate:"required,max=120"`
	State        string `json:"state" gorm:"size:2" validate:"required,uf"`
	ZipCode      string `json:"zipCode" gorm:"size:10" validate:"required"`
	Country      string `json:"country,omitempty" gorm:"size:2" validate:"omitempty,len=2"`
}

type CustomerAddress struct {
	ID         uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID uint64      `json:"customerId" gorm:"not null;index"`
	Address    `gorm:"embedded"`
	Type       AddressType `json:"type" gorm:"size:10;not null" validate:"omitempty,oneof=home work other"`
	IsDefault  bool        `json:"isDefault" gorm:"not null;default:false"`
	CreatedAt  time.Time   `json:"createdAt" gorm:"autoCreateTime"`
}

type Customer struct {
	ID               uint64            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name             string            `json:"name" gorm:"size:150;not null"`
	Email            string            `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone            string            `json:"phone,omitempty" gorm:"size:32"`
	AcceptsMarketing bool              `json:"acceptsMarketing" gorm:"not null;default:false"`
	Tags             StringList        `json:"tags" gorm:"type:text"`
	Addresses        []CustomerAddress `json:"addresses,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt        time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// DefaultAddress returns the address flagged default, if any.
func (c *Customer) DefaultAddress() *CustomerAddress {
	for i := range c.Addresses {
		if c.Addresses[i].IsDefault {
			return &c.Addresses[i]
		}
	}
	return nil
}

// StringList is stored as a JSON array. Legacy rows holding a bare string are
// read as a single element list.
type StringList []string

func (s *StringList) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		*s = StringList{}
		return nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		*s = StringList{trimmed}
		return nil
	}

	var values []string
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return err
	}
	*s = values
	return nil
}

// Value always writes an array so new rows stay consistent.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
