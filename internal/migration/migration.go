package migration

import (
	"gorm.io/gorm"

	auditdomain "github.com/Emad-Khatrush/Exios-Api/internal/audit/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	invoicedomain "github.com/Emad-Khatrush/Exios-Api/internal/invoice/domain"
	orderdomain "github.com/Emad-Khatrush/Exios-Api/internal/order/domain"
	historydomain "github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/domain"
	ratesdomain "github.com/Emad-Khatrush/Exios-Api/internal/rates/domain"
	walletdomain "github.com/Emad-Khatrush/Exios-Api/internal/wallet/domain"
	warehousedomain "github.com/Emad-Khatrush/Exios-Api/internal/warehouse/domain"
)

// RunMigrations creates or updates every table at boot.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&walletdomain.Wallet{},
		&walletdomain.StatementEntry{},
		&orderdomain.Order{},
		&orderdomain.Package{},
		&invoicedomain.Invoice{},
		&historydomain.Entry{},
		&warehousedomain.PickupListing{},
		&ratesdomain.ExchangeRate{},
		&auditdomain.AuditLog{},
		&events.OpsEvent{},
	)
}
