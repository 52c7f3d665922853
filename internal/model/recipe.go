package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is the persistent recipe record. The retrieval pipeline treats it as
// read-only; only ingestion writes it.
type Recipe struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Ingredients  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Tags         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Source       string           `gorm:"size:255" json:"source,omitempty"`
	Embedding    pgvector.Vector  `gorm:"type:vector(1536)" json:"-"`
}

// Candidate is a recipe under consideration for a single query, annotated
// with scoring metadata. It never outlives the request.
type Candidate struct {
	Recipe     *Recipe
	Similarity float64
	Overlap    float64
	Missing    []string
	Score      float64
}

// Suggestion is the presentable result of a suggest request. Generated is
// false when the suggestion carries the original record text, either because
// generation is disabled or because the fallback policy kicked in.
type Suggestion struct {
	RecipeID     uuid.UUID `json:"recipe_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions,omitempty"`
	Missing      []string  `json:"missing_ingredients"`
	Generated    bool      `json:"generated"`
}
