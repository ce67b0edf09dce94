package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"papertrade/internal/logger"
	"papertrade/internal/models"
)

// Audit actions.
const (
	AuditTradeBuy              = "TRADE_BUY"
	AuditTradeSell             = "TRADE_SELL"
	AuditWatchlistAdd          = "WATCHLIST_ADD"
	AuditWatchlistRemove       = "WATCHLIST_REMOVE"
	AuditInstrumentSeed        = "INSTRUMENT_SEED"
	AuditInstrumentPriceUpdate = "INSTRUMENT_PRICE_UPDATE"
	AuditUserRegister          = "USER_REGISTER"
	AuditLedgerVerifyFailed    = "LEDGER_VERIFY_FAILED"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Admin actions pass an empty userID. Failures
// are logged and swallowed: the audited operation has already committed.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Named("audit").With("action", action, "resource_type", resourceType, "resource_id", resourceID)

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes, log.Errorw),
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry", "error", err, "user_id", userID)
	}
}

func encodeChanges(changes map[string]interface{}, onErr func(string, ...interface{})) string {
	if changes == nil {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		onErr("failed to encode audit changes", "error", err)
		return "{}"
	}
	return string(data)
}
