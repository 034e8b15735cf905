package data

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Placeholder values given to every listing at creation time.
const (
	DefaultRating      = 5.0
	DefaultReviewCount = 0
)

// Hours holds one free-text opening-hours string per weekday.
type Hours struct {
	Monday    string `json:"monday" bson:"monday"`
	Tuesday   string `json:"tuesday" bson:"tuesday"`
	Wednesday string `json:"wednesday" bson:"wednesday"`
	Thursday  string `json:"thursday" bson:"thursday"`
	Friday    string `json:"friday" bson:"friday"`
	Saturday  string `json:"saturday" bson:"saturday"`
	Sunday    string `json:"sunday" bson:"sunday"`
}

// Value stores Hours as a JSON column.
func (h Hours) Value() (driver.Value, error) {
	b, err := json.Marshal(h)
	return string(b), err
}

// Scan reads Hours from a JSON column.
func (h *Hours) Scan(src any) error {
	return scanJSON(src, h)
}

// StringList is an ordered list of tags stored as a JSON column.
type StringList []string

// Value stores the list as a JSON column.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

// Scan reads the list from a JSON column.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}

// BusinessListing is a flat record describing one business.
type BusinessListing struct {
	ID            int64      `json:"id,omitempty" db:"id" bson:"-"`
	Slug          string     `json:"slug" db:"slug" bson:"slug"`
	Name          string     `json:"name" db:"name" bson:"name"`
	Category      string     `json:"category,omitempty" db:"category" bson:"category"`
	Description   string     `json:"description" db:"description" bson:"description"`
	Address       string     `json:"address" db:"address" bson:"address"`
	City          string     `json:"city" db:"city" bson:"city"`
	State         string     `json:"state" db:"state" bson:"state"`
	ZipCode       string     `json:"zipCode" db:"zip_code" bson:"zipCode"`
	Phone         string     `json:"phone" db:"phone" bson:"phone"`
	Website       string     `json:"website,omitempty" db:"website" bson:"website,omitempty"`
	Email         string     `json:"email,omitempty" db:"email" bson:"email,omitempty"`
	FeaturedImage string     `json:"featuredImage" db:"featured_image" bson:"featuredImage"`
	Amenities     StringList `json:"amenities" db:"amenities" bson:"amenities"`
	Hours         Hours      `json:"hours" db:"hours" bson:"hours"`
	Rating        float64    `json:"rating" db:"rating" bson:"rating"`
	ReviewCount   int        `json:"reviewCount" db:"review_count" bson:"reviewCount"`
	CreatedAt     time.Time  `json:"createdAt,omitempty" db:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt,omitempty" db:"updated_at" bson:"updatedAt"`
}

// LocationListing refines a BusinessListing for one named location. Empty
// override fields fall back to the parent's values when the page is generated.
type LocationListing struct {
	Slug          string `json:"slug,omitempty"`
	Name          string `json:"name,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zipCode,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Website       string `json:"website,omitempty"`
	Email         string `json:"email,omitempty"`
	FeaturedImage string `json:"featuredImage,omitempty"`
}

// Review is a visitor review tied to a business by slug.
type Review struct {
	ID           int64     `json:"id" db:"id"`
	BusinessSlug string    `json:"businessSlug" db:"business_slug"`
	ReviewerName string    `json:"reviewerName" db:"reviewer_name"`
	Rating       int       `json:"rating" db:"rating"`
	ReviewText   string    `json:"reviewText" db:"review_text"`
	Approved     bool      `json:"approved" db:"approved"`
	SourceAddr   string    `json:"-" db:"source_addr"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
