package postgres

import (
	"database/sql"
	"time"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

type accountModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password;size:255;not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	Verified     bool      `gorm:"column:is_verified;not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (accountModel) TableName() string { return "students" }

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Verified:     m.Verified,
		CreatedAt:    m.CreatedAt,
	}
}

type pendingSignupModel struct {
	Email        string    `gorm:"primaryKey;size:255"`
	PasswordHash string    `gorm:"column:password;size:255;not null"`
	Token        string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (pendingSignupModel) TableName() string { return "pending_signups" }

func (m *pendingSignupModel) toDomain() *domain.PendingSignup {
	return &domain.PendingSignup{
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Token:        m.Token,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
	}
}

type itemModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	PropertyNo     string          `gorm:"size:64;not null;uniqueIndex"`
	QRCode         sql.NullString  `gorm:"column:qr_code;size:128"`
	ArticleType    string          `gorm:"size:128;not null"`
	Specifications sql.NullString  `gorm:"type:text"`
	Location       sql.NullString  `gorm:"size:128"`
	CompanyName    sql.NullString  `gorm:"size:128"`
	Price          sql.NullFloat64 `gorm:"type:numeric(12,2)"`
	DateAcquired   sql.NullTime    `gorm:"type:date"`
	Status         string          `gorm:"column:item_status;size:32;not null;default:Available"`
	Remarks        sql.NullString  `gorm:"type:text"`
}

func (itemModel) TableName() string { return "items" }

func (m *itemModel) toDomain() *domain.Item {
	it := &domain.Item{
		ID:             m.ID,
		PropertyNo:     m.PropertyNo,
		QRCode:         m.QRCode.String,
		ArticleType:    m.ArticleType,
		Specifications: m.Specifications.String,
		Location:       m.Location.String,
		CompanyName:    m.CompanyName.String,
		Price:          m.Price.Float64,
		Status:         domain.ItemStatus(m.Status),
		Remarks:        m.Remarks.String,
	}
	if m.DateAcquired.Valid {
		d := m.DateAcquired.Time
		it.DateAcquired = &d
	}
	return it
}

func itemFromDomain(it *domain.Item) *itemModel {
	m := &itemModel{
		ID:             it.ID,
		PropertyNo:     it.PropertyNo,
		QRCode:         nullString(it.QRCode),
		ArticleType:    it.ArticleType,
		Specifications: nullString(it.Specifications),
		Location:       nullString(it.Location),
		CompanyName:    nullString(it.CompanyName),
		Price:          sql.NullFloat64{Float64: it.Price, Valid: it.Price != 0},
		Status:         string(it.Status),
		Remarks:        nullString(it.Remarks),
	}
	if it.DateAcquired != nil {
		m.DateAcquired = sql.NullTime{Time: *it.DateAcquired, Valid: true}
	}
	if m.Status == "" {
		m.Status = string(domain.ItemAvailable)
	}
	return m
}

type borrowRequestModel struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	UserID     int64          `gorm:"not null;index"`
	ItemIDs    string         `gorm:"column:item_ids;type:text;not null"`
	ItemKey    string         `gorm:"type:text;not null"`
	Status     string         `gorm:"size:32;not null"`
	PickupDate time.Time      `gorm:"type:date;not null"`
	ReturnDate time.Time      `gorm:"type:date;not null"`
	Remarks    sql.NullString `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"not null"`
}

func (borrowRequestModel) TableName() string { return "borrow_requests" }

// borrowRow is a request joined with its owner's email for listings.
type borrowRow struct {
	Request   borrowRequestModel `gorm:"embedded"`
	UserEmail string
}

func (m *borrowRequestModel) toDomain() (*domain.BorrowRequest, error) {
	ids, err := domain.DecodeItemIDs(m.ItemIDs)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseRequestStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &domain.BorrowRequest{
		ID:         m.ID,
		AccountID:  m.UserID,
		ItemIDs:    ids,
		Status:     status,
		PickupDate: m.PickupDate.UTC(),
		ReturnDate: m.ReturnDate.UTC(),
		Remarks:    m.Remarks.String,
		CreatedAt:  m.CreatedAt,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
