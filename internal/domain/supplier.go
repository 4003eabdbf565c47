package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DisplayName  string    `gorm:"column:display_name;type:text;not null" json:"display_name"`
	ContactEmail string    `gorm:"column:contact_email;type:text;not null" json:"contact_email"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	Country      string    `gorm:"type:text" json:"country"`

	Capabilities []Capability       `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupplierID;references:ID" json:"capabilities,omitempty"`
	Documents    []SupplierDocument `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupplierID;references:ID" json:"documents,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Supplier) TableName() string { return "supplier" }

// Capability declares one manufacturing process a supplier offers, together
// with the materials and certifications it covers. Capability rows are replaced
// wholesale on profile update, never patched in place.
type Capability struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`

	Process        string                      `gorm:"type:text;not null" json:"process"`
	Materials      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"materials"`
	Certifications datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"certifications"`

	MaxLengthMM *float64 `gorm:"column:max_length_mm" json:"max_length_mm,omitempty"`
	MaxWidthMM  *float64 `gorm:"column:max_width_mm" json:"max_width_mm,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Capability) TableName() string { return "capability" }

// SupplierDocument is evidentiary proof of a certification claim.
type SupplierDocument struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`

	DocType  string `gorm:"column:doc_type;type:text;not null" json:"doc_type"`
	FileName string `gorm:"column:file_name;type:text" json:"file_name"`

	UploadedAt time.Time `gorm:"not null;default:now()" json:"uploaded_at"`
}

func (SupplierDocument) TableName() string { return "supplier_document" }
