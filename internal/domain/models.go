package domain

import "time"

// Enumerations
const (
	RoleAdmin    UserRole = "admin"
	RoleEmployee UserRole = "employee"

	NatureTicket  SaleNature = "TICKET"
	NatureVoucher SaleNature = "BON DE L."

	SaleCommitted SaleStatus = "committed"
	SaleModified  SaleStatus = "modified"

	PaymentCash      PaymentMode = "cash"
	PaymentOnAccount PaymentMode = "onAccount"
	PaymentCard      PaymentMode = "card"
)

// WalkInClientID is the client reference of counter sales.
const WalkInClientID int64 = 0

// WalkInName is the display name of the walk-in client.
const WalkInName = "Comptoir"

type UserRole string
type SaleNature string
type SaleStatus string
type PaymentMode string

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentOnAccount, PaymentCard:
		return true
	}
	return false
}

// NatureFor returns the sale nature implied by a client reference.
func NatureFor(clientID int64) SaleNature {
	if clientID == WalkInClientID {
		return NatureTicket
	}
	return NatureVoucher
}

type User struct {
	ID        int64
	Name      string
	Password  string
	Role      UserRole
	CreatedAt time.Time
}

// Party is a client or a supplier. Balance is kept in display format and is
// negative when the party owes money.
type Party struct {
	ID        int64
	Name      string
	Balance   string
	Reference string
	Contact   string
	Address   string
	CreatedAt time.Time
}

type Client = Party
type Supplier = Party

type Category struct {
	ID          int64
	Description string
}

type Product struct {
	ID             int64
	Barcode        string
	Designation    string
	Quantity       int
	SalePrice      string
	CostPrice      string
	Reference      string
	CategoryID     *int64
	WholesalePrice string
	MinPrice       string
	Available      bool
	CreatedAt      time.Time
}

type Sale struct {
	ID        int64
	ClientID  int64
	CreatedAt time.Time
	Status    SaleStatus
	Nature    SaleNature
	Sequence  int
	UserID    int64
	Lines     []SaleLine
	Cash      *CashEntry
}

// WalkIn reports whether the sale has no client account.
func (s Sale) WalkIn() bool { return s.ClientID == WalkInClientID }

type SaleLine struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice string
	LineTotal string
	CostPrice string
	Remark    string
}

type CashEntry struct {
	ID            int64
	SaleID        int64
	AmountDue     string
	AmountSettled string
	Tax           string
	BalanceDelta  string
	PaymentMode   PaymentMode
	Origin        SaleNature
	CreatedAt     time.Time
}
