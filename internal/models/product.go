package models

import "time"

// TrendingThreshold is the view count a product must exceed to be trending.
const TrendingThreshold = 20

// Category and brand choices. "other" is the catch-all for both.
var (
	Categories = []string{"top", "shorts", "jacket", "shoes", "socks", "gloves", "ball", "other"}
	Brands     = []string{"nike", "adidas", "puma", "other"}
)

// Product represents a catalog item in the shop.
type Product struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Price        int       `json:"price" gorm:"not null;default:0" validate:"gte=0"`
	Description  string    `json:"description" gorm:"type:text;not null" validate:"required"`
	Thumbnail    string    `json:"thumbnail" gorm:"type:varchar(200)" validate:"omitempty,max=200,url"`
	Category     string    `json:"category" gorm:"type:varchar(20);not null;default:other" validate:"required,oneof=top shorts jacket shoes socks gloves ball other"`
	Brand        string    `json:"brand" gorm:"type:varchar(20);not null;default:other" validate:"required,oneof=nike adidas puma other"`
	IsFeatured   bool      `json:"is_featured" gorm:"not null;default:false"`
	ProductViews uint      `json:"product_views" gorm:"not null;default:0"`
	UserID       *string   `json:"user_id" gorm:"type:varchar(36);index"` // nil for products created without a session
	User         *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsTrending reports whether the product has been viewed more than
// TrendingThreshold times.
func (p *Product) IsTrending() bool {
	return p.ProductViews > TrendingThreshold
}

// HasOwner reports whether the product belongs to an account.
func (p *Product) HasOwner() bool {
	return p.UserID != nil
}

// OwnedBy reports whether userID owns the product.
func (p *Product) OwnedBy(userID string) bool {
	return p.UserID != nil && *p.UserID == userID
}

// SetOwner assigns the owner; a nil user clears it.
func (p *Product) SetOwner(u *User) {
	if u == nil {
		p.UserID = nil
		return
	}
	id := u.ID
	p.UserID = &id
}

// OwnerID returns the owner's id, or "" when the product has no owner.
func (p *Product) OwnerID() string {
	if p.UserID == nil {
		return ""
	}
	return *p.UserID
}
