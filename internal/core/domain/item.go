package domain

import "time"

// ItemStatus is the availability flag of a physical item. It mirrors the set
// of open borrow requests that reference the item.
type ItemStatus string

const (
	ItemAvailable    ItemStatus = "Available"
	ItemToBeBorrowed ItemStatus = "To be Borrowed"
	ItemBorrowed     ItemStatus = "Borrowed"
	ItemBadCondition ItemStatus = "Bad Condition"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemToBeBorrowed, ItemBorrowed, ItemBadCondition:
		return true
	}
	return false
}

// Item is a borrowable piece of equipment.
type Item struct {
	ID             int64      `json:"id"`
	PropertyNo     string     `json:"property_no"`
	QRCode         string     `json:"qr_code,omitempty"`
	ArticleType    string     `json:"article_type"`
	Specifications string     `json:"specifications,omitempty"`
	Location       string     `json:"location,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	Price          float64    `json:"price,omitempty"`
	DateAcquired   *time.Time `json:"date_acquired,omitempty"`
	Status         ItemStatus `json:"item_status"`
	Remarks        string     `json:"remarks,omitempty"`
}

// ItemCondition is the inspection result recorded when an item comes back.
type ItemCondition string

const (
	ConditionGood ItemCondition = "Good"
	ConditionBad  ItemCondition = "Bad"
)

// ParseItemCondition accepts the two known conditions; an empty value is
// treated as Good.
func ParseItemCondition(s string) (ItemCondition, error) {
	switch ItemCondition(s) {
	case "", ConditionGood:
		return ConditionGood, nil
	case ConditionBad:
		return ConditionBad, nil
	}
	return "", Validationf("unknown item condition %q", s)
}

// ReturnStatus is the status an item takes after being returned in condition c.
func (c ItemCondition) ReturnStatus() ItemStatus {
	if c == ConditionBad {
		return ItemBadCondition
	}
	return ItemAvailable
}

// ItemUpdate is a single item write performed as part of a lifecycle transition.
// A nil Remarks leaves the stored remarks untouched.
type ItemUpdate struct {
	ItemID  int64
	Status  ItemStatus
	Remarks *string
}
